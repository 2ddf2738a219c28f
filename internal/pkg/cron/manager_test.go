package cron

import (
	"Purng/internal/api/config"
	"Purng/internal/job"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(enable bool, reminderSpec, auditSpec string) *config.Config {
	return &config.Config{
		Reminder:   config.ReminderConfig{Enable: enable, Cron: reminderSpec},
		StatsAudit: config.StatsAuditConfig{Cron: auditSpec},
	}
}

func TestRegisterJobs(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		entries int
		wantErr bool
	}{
		{name: "all jobs", cfg: newConfig(true, "0 0 14 * * *", "0 */10 * * * *"), entries: 2},
		{name: "reminder disabled", cfg: newConfig(false, "0 0 14 * * *", "0 */10 * * * *"), entries: 1},
		{name: "bad reminder expression", cfg: newConfig(true, "every day", "0 */10 * * * *"), wantErr: true},
		{name: "bad audit expression", cfg: newConfig(false, "", "*/10 * * *"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := NewCronManager(tt.cfg, job.NewReminderJob(nil, nil), job.NewStatsAuditJob(nil, nil))
			err := mgr.RegisterJobs()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, mgr.engine.Entries(), tt.entries)
		})
	}
}

func TestRunAndStop(t *testing.T) {
	mgr := NewCronManager(newConfig(true, "0 0 14 * * *", "0 */10 * * * *"), job.NewReminderJob(nil, nil), job.NewStatsAuditJob(nil, nil))
	require.NoError(t, mgr.Run())
	assert.False(t, mgr.engine.Entries()[0].Next.IsZero())
	mgr.Stop()

	bad := NewCronManager(newConfig(false, "", "bad"), job.NewReminderJob(nil, nil), job.NewStatsAuditJob(nil, nil))
	assert.Error(t, bad.Run())
}

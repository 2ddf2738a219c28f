package cron

import (
	"Purng/internal/api/config"
	"Purng/internal/job"
	log "log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine        *cron.Cron
	cfg           *config.Config
	reminderJob   *job.ReminderJob
	statsAuditJob *job.StatsAuditJob
}

// NewCronManager 提醒按 UTC 日历触发
func NewCronManager(cfg *config.Config, reminderJob *job.ReminderJob, statsAuditJob *job.StatsAuditJob) *Manager {
	return &Manager{
		engine:        cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		cfg:           cfg,
		reminderJob:   reminderJob,
		statsAuditJob: statsAuditJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.cfg.Reminder.Enable {
		if _, err := s.engine.AddJob(s.cfg.Reminder.Cron, s.reminderJob); err != nil {
			return err
		}
	}
	if _, err := s.engine.AddJob(s.cfg.StatsAudit.Cron, s.statsAuditJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron engine started", "jobs", len(s.engine.Entries()))
	s.engine.Start()
}

// Run 注册并启动，表达式非法时不启动引擎
func (s *Manager) Run() error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}
	s.Start()
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	<-s.engine.Stop().Done()
	log.Info("Cron engine stopped")
}

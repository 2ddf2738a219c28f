package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ensureUserRowSQL = regexp.QuoteMeta("INSERT INTO `user_yearly_stats`") + ".*" +
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `my_total`=my_total")
	lockUserRowSQL = regexp.QuoteMeta("SELECT * FROM `user_yearly_stats` WHERE user_id = ? AND year = ? ORDER BY `user_yearly_stats`.`id` LIMIT ? FOR UPDATE")
	sumUserSQL     = regexp.QuoteMeta("SELECT user_id, COALESCE(SUM(count), 0) AS my_total,") + ".*" +
		regexp.QuoteMeta("FROM `pushup_entries` WHERE user_id = ? AND date >= ? AND date <= ? GROUP BY `user_id`")
	updateUserRowSQL = regexp.QuoteMeta("UPDATE `user_yearly_stats` SET `my_total`=?,`on_time_pushups`=?,`recovered_pushups`=?,`updated_at`=? WHERE `id` = ?")

	ensureCommunityRowSQL = regexp.QuoteMeta("INSERT INTO `yearly_community_stats`") + ".*" +
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `community_total`=community_total")
	lockCommunityRowSQL = regexp.QuoteMeta("SELECT * FROM `yearly_community_stats` WHERE year = ? ORDER BY `yearly_community_stats`.`id` LIMIT ? FOR UPDATE")
	sumCommunitySQL     = regexp.QuoteMeta("SELECT COALESCE(SUM(count), 0) FROM `pushup_entries` WHERE date >= ? AND date <= ?")
	updateCommunitySQL  = regexp.QuoteMeta("UPDATE `yearly_community_stats` SET `community_total`=?,`updated_at`=? WHERE `id` = ?")
)

func sumUserRows(userID uint64, total, onTime, recovered int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"user_id", "my_total", "on_time_pushups", "recovered_pushups"})
	if total > 0 {
		rows.AddRow(userID, total, onTime, recovered)
	}
	return rows
}

func TestRepairUserYearStats(t *testing.T) {
	tests := []struct {
		name         string
		stored       [3]int
		ledger       [3]int
		wantRepaired bool
	}{
		{
			name:         "drifted row is overwritten under row lock",
			stored:       [3]int{5, 5, 0},
			ledger:       [3]int{9, 7, 2},
			wantRepaired: true,
		},
		{
			name:   "matching row rolls back",
			stored: [3]int{9, 7, 2},
			ledger: [3]int{9, 7, 2},
		},
		{
			name: "zero row for empty ledger is rolled back",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectExec(ensureUserRowSQL).WillReturnResult(sqlmock.NewResult(3, 1))
			mock.ExpectQuery(lockUserRowSQL).
				WithArgs(1, 2025, 1).
				WillReturnRows(statsRow(3, 1, 2025, tt.stored[0], tt.stored[1], tt.stored[2]))
			mock.ExpectQuery(sumUserSQL).
				WithArgs(1, "2025-01-01", "2025-12-31").
				WillReturnRows(sumUserRows(1, tt.ledger[0], tt.ledger[1], tt.ledger[2]))
			if tt.wantRepaired {
				mock.ExpectExec(updateUserRowSQL).
					WithArgs(tt.ledger[0], tt.ledger[1], tt.ledger[2], sqlmock.AnyArg(), 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			res, err := NewStatsRepo(db).RepairUserYearStats(context.Background(), 1, 2025)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRepaired, res.Repaired)
			assert.Equal(t, tt.stored[0], res.Stored.MyTotal)
			assert.Equal(t, tt.ledger[0], res.Expected.MyTotal)
			assert.Equal(t, tt.ledger[2], res.Expected.RecoveredPushups)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepairUserYearStatsLockError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(ensureUserRowSQL).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(lockUserRowSQL).WillReturnError(errDeadlock)
	mock.ExpectRollback()

	res, err := NewStatsRepo(db).RepairUserYearStats(context.Background(), 1, 2025)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsDeadlock(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairYearCommunityStats(t *testing.T) {
	tests := []struct {
		name         string
		stored       int
		ledger       int
		wantRepaired bool
	}{
		{name: "drifted total is overwritten", stored: 5, ledger: 9, wantRepaired: true},
		{name: "matching total rolls back", stored: 9, ledger: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectExec(ensureCommunityRowSQL).WillReturnResult(sqlmock.NewResult(4, 1))
			mock.ExpectQuery(lockCommunityRowSQL).
				WithArgs(2025, 1).
				WillReturnRows(sqlmock.NewRows([]string{"id", "year", "community_total"}).AddRow(4, 2025, tt.stored))
			mock.ExpectQuery(sumCommunitySQL).
				WithArgs("2025-01-01", "2025-12-31").
				WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(tt.ledger))
			if tt.wantRepaired {
				mock.ExpectExec(updateCommunitySQL).
					WithArgs(tt.ledger, sqlmock.AnyArg(), 4).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			res, err := NewStatsRepo(db).RepairYearCommunityStats(context.Background(), 2025)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRepaired, res.Repaired)
			assert.Equal(t, tt.stored, res.Stored.CommunityTotal)
			assert.Equal(t, tt.ledger, res.Expected.CommunityTotal)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRebuildStats(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pushup_entries` ORDER BY `pushup_entries`.`id` LIMIT ?")).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "count", "date", "created_at", "is_recovery"}).
			AddRow(1, 1, 3, "2024-12-31", 100, false).
			AddRow(2, 1, 4, "2025-01-02", 200, true).
			AddRow(3, 2, 5, "2025-01-02", 300, false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `user_yearly_stats`")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `yearly_community_stats`")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user_yearly_stats`")).WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `yearly_community_stats`")).WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	res, err := NewStatsRepo(db).RebuildStats(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, &RebuildResult{EntriesProcessed: 3, YearsUpdated: 2, UserYearsUpdated: 3}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildStatsRollsBackOnScanError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pushup_entries`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "count", "date", "created_at", "is_recovery"}).
			AddRow(1, 1, 3, "not-a-date", 100, false))
	mock.ExpectRollback()

	_, err := NewStatsRepo(db).RebuildStats(context.Background(), 500)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

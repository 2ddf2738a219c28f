package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	insertEntrySQL     = regexp.QuoteMeta("INSERT INTO `pushup_entries`")
	savepointSQL       = regexp.QuoteMeta("SAVEPOINT sp_stats")
	rollbackToSQL      = regexp.QuoteMeta("ROLLBACK TO SAVEPOINT sp_stats")
	upsertCommunitySQL = regexp.QuoteMeta("INSERT INTO `yearly_community_stats`") + ".*" +
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `community_total`=community_total + ?,`updated_at`=?")
	upsertUserSQL = regexp.QuoteMeta("INSERT INTO `user_yearly_stats`") + ".*" +
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `my_total`=my_total + ?,`on_time_pushups`=on_time_pushups + ?,`recovered_pushups`=recovered_pushups + ?,`updated_at`=?")
)

// newMockDB 预编译关闭，否则每条语句都要 ExpectPrepare
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	return db, mock
}

func statsRow(id, userID uint64, year, total, onTime, recovered int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "year", "my_total", "on_time_pushups", "recovered_pushups", "updated_at"}).
		AddRow(id, userID, year, total, onTime, recovered, time.Now())
}

package repository

import (
	"Purng/internal/model"
	"Purng/internal/pkg/target"
	"context"
	"errors"
	"fmt"
	log "log/slog"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrStatsNotApplied 流水已提交，但年度汇总累加失败
var ErrStatsNotApplied = errors.New("pushup entry committed without stats")

const (
	statsSavePoint      = "sp_stats"
	createEntryAttempts = 3
	mysqlErrDeadlock    = 1213
)

// UserDate 用户 + 目标日
type UserDate struct {
	UserID uint64
	Date   string
}

// UserYear 用户 + 年份
type UserYear struct {
	UserID uint64
	Year   int
}

type PushupRepo interface {
	CreateEntry(ctx context.Context, entry *model.PushupEntry) error
	SumUserDate(ctx context.Context, userID uint64, date string) (int, error)
	SumUserDateRange(ctx context.Context, userID uint64, start, end string) (map[string]int, error)
	SumUserRange(ctx context.Context, userID uint64, start, end string) (int, error)
	GetDateUserTotals(ctx context.Context, date string) (map[uint64]int, error)
	GetEntriesBefore(ctx context.Context, cursor int64, limit int) ([]*model.PushupEntry, error)
	GetEntriesByUserDates(ctx context.Context, keys []UserDate) ([]*model.PushupEntry, error)
	GetUserYearsSince(ctx context.Context, createdAt int64) ([]UserYear, error)
}

type pushupRepoImpl struct {
	db *gorm.DB
}

func NewPushupRepo(db *gorm.DB) PushupRepo {
	return &pushupRepoImpl{db: db}
}

// CreateEntry 写入流水并在同一事务内累加年度汇总
// 汇总失败时回滚到保存点，流水照常提交，返回 ErrStatsNotApplied；
// 死锁时 InnoDB 已回滚整个事务，保存点随之失效，只能整体重试
func (s *pushupRepoImpl) CreateEntry(ctx context.Context, entry *model.PushupEntry) error {
	year, err := target.YearOf(entry.Date)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		statsErr, err := s.createEntryTx(ctx, entry, year)
		if err == nil {
			if statsErr != nil {
				return fmt.Errorf("%w: %v", ErrStatsNotApplied, statsErr)
			}
			return nil
		}
		if !IsDeadlock(err) || attempt >= createEntryAttempts {
			return fmt.Errorf("create pushup entry: %w", err)
		}
		log.WarnContext(ctx, "create pushup entry deadlock, retrying", "attempt", attempt, "user_id", entry.UserID)
		entry.ID = 0
	}
}

func (s *pushupRepoImpl) createEntryTx(ctx context.Context, entry *model.PushupEntry, year int) (statsErr error, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if err := tx.SavePoint(statsSavePoint).Error; err != nil {
			return err
		}
		if err := applyEntryDelta(tx, entry, year); err != nil {
			if IsDeadlock(err) {
				return err
			}
			if rbErr := tx.RollbackTo(statsSavePoint).Error; rbErr != nil {
				return rbErr
			}
			statsErr = err
		}
		return nil
	})
	return statsErr, err
}

// IsDeadlock MySQL 1213，整个事务已被回滚
func IsDeadlock(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDeadlock
}

// SumUserDate 用户某天已完成数
func (s *pushupRepoImpl) SumUserDate(ctx context.Context, userID uint64, date string) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND date = ?", userID, date).
		Scan(&total).Error
	return total, err
}

// SumUserDateRange 用户在 [start, end] 内按天汇总
func (s *pushupRepoImpl) SumUserDateRange(ctx context.Context, userID uint64, start, end string) (map[string]int, error) {
	type row struct {
		Date  string
		Total int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select("date, SUM(count) AS total").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Group("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make(map[string]int, len(rows))
	for _, r := range rows {
		res[r.Date] = r.Total
	}
	return res, nil
}

// SumUserRange 用户在 [start, end] 内的合计
func (s *pushupRepoImpl) SumUserRange(ctx context.Context, userID uint64, start, end string) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Scan(&total).Error
	return total, err
}

// GetDateUserTotals 某天每个用户的完成数
func (s *pushupRepoImpl) GetDateUserTotals(ctx context.Context, date string) (map[uint64]int, error) {
	type row struct {
		UserID uint64
		Total  int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select("user_id, SUM(count) AS total").
		Where("date = ?", date).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make(map[uint64]int, len(rows))
	for _, r := range rows {
		res[r.UserID] = r.Total
	}
	return res, nil
}

// GetEntriesBefore 按提交时间倒序取流水，cursor 为 0 时从最新开始
func (s *pushupRepoImpl) GetEntriesBefore(ctx context.Context, cursor int64, limit int) ([]*model.PushupEntry, error) {
	entries := make([]*model.PushupEntry, 0, limit)
	q := s.db.WithContext(ctx).Model(&model.PushupEntry{})
	if cursor > 0 {
		q = q.Where("created_at < ?", cursor)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// GetEntriesByUserDates 批量取若干 (用户, 日期) 的全部流水
func (s *pushupRepoImpl) GetEntriesByUserDates(ctx context.Context, keys []UserDate) ([]*model.PushupEntry, error) {
	entries := make([]*model.PushupEntry, 0)
	if len(keys) == 0 {
		return entries, nil
	}

	pairs := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, []interface{}{k.UserID, k.Date})
	}
	err := s.db.WithContext(ctx).
		Where("(user_id, date) IN ?", pairs).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// GetUserYearsSince 提交时间不早于 createdAt 的流水涉及的 (用户, 年份)
func (s *pushupRepoImpl) GetUserYearsSince(ctx context.Context, createdAt int64) ([]UserYear, error) {
	type row struct {
		UserID uint64
		Year   int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select("DISTINCT user_id, CAST(LEFT(date, 4) AS UNSIGNED) AS year").
		Where("created_at >= ?", createdAt).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make([]UserYear, 0, len(rows))
	for _, r := range rows {
		res = append(res, UserYear{UserID: r.UserID, Year: r.Year})
	}
	return res, nil
}

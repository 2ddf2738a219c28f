package repository

import (
	"Purng/internal/model"
	"Purng/internal/pkg/rollup"
	"Purng/internal/pkg/target"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RebuildResult 全量重算结果
type RebuildResult struct {
	EntriesProcessed int `json:"entries_processed"`
	YearsUpdated     int `json:"years_updated"`
	UserYearsUpdated int `json:"user_years_updated"`
}

type StatsRepo interface {
	GetUserYearStats(ctx context.Context, userID uint64, year int) (*model.UserYearStats, error)
	ListUserYearStats(ctx context.Context, year int) ([]*model.UserYearStats, error)
	GetYearCommunityStats(ctx context.Context, year int) (*model.YearCommunityStats, error)

	ComputeYearUserStats(ctx context.Context, year int) ([]*model.UserYearStats, error)
	ComputeYearCommunityStats(ctx context.Context, year int) (*model.YearCommunityStats, error)

	RepairUserYearStats(ctx context.Context, userID uint64, year int) (*UserYearRepair, error)
	RepairYearCommunityStats(ctx context.Context, year int) (*YearRepair, error)

	RebuildStats(ctx context.Context, batchSize int) (*RebuildResult, error)
}

type statsRepoImpl struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepo {
	return &statsRepoImpl{db: db}
}

// applyEntryDelta 以增量方式累加两张汇总表，并发写入互不覆盖
func applyEntryDelta(tx *gorm.DB, entry *model.PushupEntry, year int) error {
	now := time.Now()
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"community_total": gorm.Expr("community_total + ?", entry.Count),
			"updated_at":      now,
		}),
	}).Create(&model.YearCommunityStats{
		Year:           year,
		CommunityTotal: entry.Count,
	}).Error
	if err != nil {
		return fmt.Errorf("upsert community stats: %w", err)
	}

	stats := &model.UserYearStats{UserID: entry.UserID, Year: year}
	rollup.Apply(stats, entry)
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"my_total":          gorm.Expr("my_total + ?", stats.MyTotal),
			"on_time_pushups":   gorm.Expr("on_time_pushups + ?", stats.OnTimePushups),
			"recovered_pushups": gorm.Expr("recovered_pushups + ?", stats.RecoveredPushups),
			"updated_at":        now,
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("upsert user stats: %w", err)
	}
	return nil
}

func (s *statsRepoImpl) GetUserYearStats(ctx context.Context, userID uint64, year int) (*model.UserYearStats, error) {
	var stats model.UserYearStats
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (s *statsRepoImpl) ListUserYearStats(ctx context.Context, year int) ([]*model.UserYearStats, error) {
	list := make([]*model.UserYearStats, 0)
	err := s.db.WithContext(ctx).Where("year = ?", year).Find(&list).Error
	return list, err
}

func (s *statsRepoImpl) GetYearCommunityStats(ctx context.Context, year int) (*model.YearCommunityStats, error) {
	var stats model.YearCommunityStats
	err := s.db.WithContext(ctx).Where("year = ?", year).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

const userStatsColumns = "user_id, " +
	"COALESCE(SUM(count), 0) AS my_total, " +
	"COALESCE(SUM(CASE WHEN is_recovery THEN 0 ELSE count END), 0) AS on_time_pushups, " +
	"COALESCE(SUM(CASE WHEN is_recovery THEN count ELSE 0 END), 0) AS recovered_pushups"

// computeUserYear 直接从流水计算用户年度汇总
func computeUserYear(db *gorm.DB, userID uint64, year int) (*model.UserYearStats, error) {
	start, end := target.YearRange(year)
	stats := &model.UserYearStats{UserID: userID, Year: year}
	err := db.Model(&model.PushupEntry{}).
		Select(userStatsColumns).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Group("user_id").
		Scan(stats).Error
	if err != nil {
		return nil, err
	}
	stats.UserID, stats.Year = userID, year
	return stats, nil
}

func computeYearCommunity(db *gorm.DB, year int) (*model.YearCommunityStats, error) {
	start, end := target.YearRange(year)
	stats := &model.YearCommunityStats{Year: year}
	err := db.Model(&model.PushupEntry{}).
		Select("COALESCE(SUM(count), 0)").
		Where("date >= ? AND date <= ?", start, end).
		Scan(&stats.CommunityTotal).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ComputeYearUserStats 直接从流水计算某年所有用户的汇总
func (s *statsRepoImpl) ComputeYearUserStats(ctx context.Context, year int) ([]*model.UserYearStats, error) {
	start, end := target.YearRange(year)
	list := make([]*model.UserYearStats, 0)
	err := s.db.WithContext(ctx).Model(&model.PushupEntry{}).
		Select(userStatsColumns).
		Where("date >= ? AND date <= ?", start, end).
		Group("user_id").
		Scan(&list).Error
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		v.Year = year
	}
	return list, nil
}

// ComputeYearCommunityStats 直接从流水计算社区年度合计
func (s *statsRepoImpl) ComputeYearCommunityStats(ctx context.Context, year int) (*model.YearCommunityStats, error) {
	return computeYearCommunity(s.db.WithContext(ctx), year)
}

// errRollupInSync 汇总与流水一致，回滚修复事务（连同刚补出来的零值行）
var errRollupInSync = errors.New("rollup in sync")

// repairTxOptions 读已提交：锁住汇总行之后的求和能看到所有已提交流水
var repairTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// UserYearRepair 修复前后的用户年度汇总
type UserYearRepair struct {
	Stored   *model.UserYearStats
	Expected *model.UserYearStats
	Repaired bool
}

// YearRepair 修复前后的社区年度合计
type YearRepair struct {
	Stored   *model.YearCommunityStats
	Expected *model.YearCommunityStats
	Repaired bool
}

// RepairUserYearStats 先用零增量 upsert 保证行存在并 FOR UPDATE 锁住，再求和覆盖。
// 并发的 applyEntryDelta 会阻塞在这一行上，提交后再叠加自己的增量
func (s *statsRepoImpl) RepairUserYearStats(ctx context.Context, userID uint64, year int) (*UserYearRepair, error) {
	res := &UserYearRepair{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "year"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"my_total": gorm.Expr("my_total")}),
		}).Create(&model.UserYearStats{UserID: userID, Year: year}).Error
		if err != nil {
			return fmt.Errorf("ensure user stats row: %w", err)
		}

		var stored model.UserYearStats
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND year = ?", userID, year).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("lock user stats row: %w", err)
		}
		expected, err := computeUserYear(tx, userID, year)
		if err != nil {
			return err
		}
		before := stored
		res.Stored, res.Expected = &before, expected
		if rollup.Equal(&stored, expected) {
			return errRollupInSync
		}

		return tx.Model(&stored).Updates(map[string]interface{}{
			"my_total":          expected.MyTotal,
			"on_time_pushups":   expected.OnTimePushups,
			"recovered_pushups": expected.RecoveredPushups,
			"updated_at":        time.Now(),
		}).Error
	}, repairTxOptions)
	if errors.Is(err, errRollupInSync) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repair user %d year %d: %w", userID, year, err)
	}
	res.Repaired = true
	return res, nil
}

// RepairYearCommunityStats 与 RepairUserYearStats 相同，锁的是社区年度行
func (s *statsRepoImpl) RepairYearCommunityStats(ctx context.Context, year int) (*YearRepair, error) {
	res := &YearRepair{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"community_total": gorm.Expr("community_total")}),
		}).Create(&model.YearCommunityStats{Year: year}).Error
		if err != nil {
			return fmt.Errorf("ensure community stats row: %w", err)
		}

		var stored model.YearCommunityStats
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ?", year).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("lock community stats row: %w", err)
		}
		expected, err := computeYearCommunity(tx, year)
		if err != nil {
			return err
		}
		before := stored
		res.Stored, res.Expected = &before, expected
		if stored.CommunityTotal == expected.CommunityTotal {
			return errRollupInSync
		}

		return tx.Model(&stored).Updates(map[string]interface{}{
			"community_total": expected.CommunityTotal,
			"updated_at":      time.Now(),
		}).Error
	}, repairTxOptions)
	if errors.Is(err, errRollupInSync) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repair community year %d: %w", year, err)
	}
	res.Repaired = true
	return res, nil
}

// RebuildStats 在一个可重复读事务里扫描全部流水，清空并重建两张汇总表
func (s *statsRepoImpl) RebuildStats(ctx context.Context, batchSize int) (*RebuildResult, error) {
	acc := rollup.NewAccumulator()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch []*model.PushupEntry
		res := tx.Model(&model.PushupEntry{}).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			for _, e := range batch {
				if err := acc.Add(e); err != nil {
					return err
				}
			}
			return nil
		})
		if res.Error != nil {
			return fmt.Errorf("scan pushup entries: %w", res.Error)
		}

		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&model.UserYearStats{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&model.YearCommunityStats{}).Error; err != nil {
			return err
		}

		if users := acc.UserYears(); len(users) > 0 {
			if err := tx.CreateInBatches(users, batchSize).Error; err != nil {
				return err
			}
		}
		if years := acc.Years(); len(years) > 0 {
			if err := tx.CreateInBatches(years, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("rebuild stats: %w", err)
	}

	return &RebuildResult{
		EntriesProcessed: acc.Processed(),
		YearsUpdated:     len(acc.Years()),
		UserYearsUpdated: len(acc.UserYears()),
	}, nil
}

package job

import (
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/logger"
	"Purng/internal/pkg/redis"
	"Purng/internal/service"
	"context"
	log "log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

const statsAuditLockTTL = 5 * time.Minute

// StatsAuditJob 处理脏集合中的 (用户, 年)，用流水重算汇总并修复
type StatsAuditJob struct {
	statsSvc service.StatsService
	store    redis.Store
}

func NewStatsAuditJob(statsSvc service.StatsService, store redis.Store) *StatsAuditJob {
	return &StatsAuditJob{
		statsSvc: statsSvc,
		store:    store,
	}
}

func (s *StatsAuditJob) Run() {
	ctx := logger.JobContext(context.Background(), "job-stats-audit")

	lockValue := uuid.NewString()
	ok, err := s.store.TryLock(ctx, consts.StatsAuditLock, lockValue, statsAuditLockTTL, 1)
	if err != nil || !ok {
		return
	}
	defer s.store.UnLock(ctx, consts.StatsAuditLock, lockValue)

	s.process(ctx)
}

func (s *StatsAuditJob) process(ctx context.Context) {
	// 上次中断遗留的处理集合优先处理，避免 Rename 覆盖
	members, err := s.store.GetSet(ctx, consts.StatsDirtyProcessingKey)
	if err != nil {
		log.ErrorContext(ctx, "get stats processing set error", "err", err)
		return
	}
	if len(members) == 0 {
		if err = s.store.Rename(ctx, consts.StatsDirtyKey, consts.StatsDirtyProcessingKey); err != nil {
			// 脏集合不存在
			return
		}
		members, err = s.store.GetSet(ctx, consts.StatsDirtyProcessingKey)
		if err != nil {
			log.ErrorContext(ctx, "get stats processing set error", "err", err)
			return
		}
	}

	years := make(map[int]struct{})
	repairedUsers := 0
	failed := 0
	for _, member := range members {
		userID, year, err := consts.ParseStatsDirtyMember(member)
		if err != nil {
			log.WarnContext(ctx, "skip malformed stats dirty member", "member", member, "err", err)
			continue
		}
		years[year] = struct{}{}

		repaired, err := s.statsSvc.RepairUserYear(ctx, userID, year)
		if err != nil {
			failed++
			log.ErrorContext(ctx, "repair user year stats error", "user_id", userID, "year", year, "err", err)
			continue
		}
		if repaired {
			repairedUsers++
		}
	}

	sortedYears := make([]int, 0, len(years))
	for year := range years {
		sortedYears = append(sortedYears, year)
	}
	sort.Ints(sortedYears)

	repairedYears := 0
	for _, year := range sortedYears {
		repaired, err := s.statsSvc.RepairYear(ctx, year)
		if err != nil {
			failed++
			log.ErrorContext(ctx, "repair community stats error", "year", year, "err", err)
			continue
		}
		if repaired {
			repairedYears++
		}
	}

	if failed > 0 {
		// 保留处理集合，下次重试
		log.WarnContext(ctx, "stats audit incomplete", "failed", failed)
		return
	}

	if err = s.store.DeleteKey(ctx, consts.StatsDirtyProcessingKey); err != nil {
		log.ErrorContext(ctx, "delete stats processing set error", "err", err)
	}

	log.InfoContext(ctx, "stats audit success",
		"members", len(members),
		"repaired_users", repairedUsers,
		"repaired_years", repairedYears)
}

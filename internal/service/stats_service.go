package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/model"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/rollup"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

type StatsService interface {
	GetStatsData(ctx context.Context, userID uint64, date string, year int) (*dto.StatsDTO, error)
	GetTotalPushups(ctx context.Context, userID uint64, year int) (int, error)
	GetAllUsersTotalPushups(ctx context.Context, year int) (int, error)
	GetCompletionCount(ctx context.Context, date string) (int, error)
	Backfill(ctx context.Context) (*repository.RebuildResult, error)
	AuditYear(ctx context.Context, year int) (*dto.StatsAuditDTO, error)
	RepairUserYear(ctx context.Context, userID uint64, year int) (bool, error)
	RepairYear(ctx context.Context, year int) (bool, error)
}

type statsServiceImpl struct {
	pushupSvc  PushupService
	targets    target.Source
	pushupRepo repository.PushupRepo
	statsRepo  repository.StatsRepo
	store      redis.Store
	alerter    Alerter
	now        func() time.Time
}

func NewStatsService(
	pushupSvc PushupService,
	targets target.Source,
	pushupRepo repository.PushupRepo,
	statsRepo repository.StatsRepo,
	store redis.Store,
	alerter Alerter,
) StatsService {
	return &statsServiceImpl{
		pushupSvc:  pushupSvc,
		targets:    targets,
		pushupRepo: pushupRepo,
		statsRepo:  statsRepo,
		store:      store,
		alerter:    alerter,
		now:        time.Now,
	}
}

func (s *statsServiceImpl) GetStatsData(ctx context.Context, userID uint64, date string, year int) (*dto.StatsDTO, error) {
	day := s.pushupSvc.Today()
	if date != "" {
		var err error
		if day, err = target.ParseDate(date); err != nil {
			return nil, ErrInvalidDate
		}
	}
	if year == 0 {
		year = day.Year()
	}
	date = target.FormatDate(day)

	res := &dto.StatsDTO{
		DayNumber: target.DayOfYear(day),
		Year:      year,
		Target:    s.targets.DailyTarget(day),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.GetTotalPushups(gCtx, userID, year)
		res.MyTotal = v
		return err
	})
	g.Go(func() error {
		v, err := s.GetAllUsersTotalPushups(gCtx, year)
		res.CommunityTotal = v
		return err
	})
	g.Go(func() error {
		v, err := s.GetCompletionCount(gCtx, date)
		res.CompletionCount = v
		return err
	})
	g.Go(func() error {
		v, err := s.pushupSvc.GetTotalMissedPushups(gCtx, userID, date)
		res.MissedPushups = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetTotalPushups 优先读汇总，未回填时退回流水求和
func (s *statsServiceImpl) GetTotalPushups(ctx context.Context, userID uint64, year int) (int, error) {
	if userID == 0 {
		return 0, nil
	}
	stats, err := s.statsRepo.GetUserYearStats(ctx, userID, year)
	if err != nil {
		return 0, err
	}
	if stats != nil {
		return stats.MyTotal, nil
	}
	start, end := target.YearRange(year)
	return s.pushupRepo.SumUserRange(ctx, userID, start, end)
}

func (s *statsServiceImpl) GetAllUsersTotalPushups(ctx context.Context, year int) (int, error) {
	stats, err := s.statsRepo.GetYearCommunityStats(ctx, year)
	if err != nil {
		return 0, err
	}
	if stats == nil {
		return 0, nil
	}
	return stats.CommunityTotal, nil
}

// GetCompletionCount 当天完成目标的人数
func (s *statsServiceImpl) GetCompletionCount(ctx context.Context, date string) (int, error) {
	day, err := target.ParseDate(date)
	if err != nil {
		return 0, ErrInvalidDate
	}
	dayTarget := s.targets.DailyTarget(day)
	totals, err := s.pushupRepo.GetDateUserTotals(ctx, target.FormatDate(day))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, total := range totals {
		if total >= dayTarget {
			count++
		}
	}
	return count, nil
}

// Backfill 从流水全量重建汇总；重建期间新写入的流水交给审计任务补齐
func (s *statsServiceImpl) Backfill(ctx context.Context) (*repository.RebuildResult, error) {
	startedAt := s.now().UnixMilli()
	log.InfoContext(ctx, "stats backfill start")

	res, err := s.statsRepo.RebuildStats(ctx, consts.BackfillBatchSize)
	if err != nil {
		return nil, err
	}

	touched, err := s.pushupRepo.GetUserYearsSince(ctx, startedAt)
	if err != nil {
		log.ErrorContext(ctx, "get entries written during backfill error", "err", err)
	} else if len(touched) > 0 {
		members := make([]string, 0, len(touched))
		for _, uy := range touched {
			members = append(members, consts.StatsDirtyMember(uy.UserID, uy.Year))
		}
		if err := s.store.SAdd(ctx, consts.StatsDirtyKey, members...); err != nil {
			log.ErrorContext(ctx, "mark stats dirty error", "err", err)
		}
	}

	bumpLeaderboard(ctx, s.store, s.pushupSvc.Today().Year())

	log.InfoContext(ctx, "stats backfill done",
		"entries_processed", res.EntriesProcessed,
		"years_updated", res.YearsUpdated,
		"user_years_updated", res.UserYearsUpdated,
		"touched_during_backfill", len(touched),
	)
	return res, nil
}

// AuditYear 对比某年的汇总与流水重算结果，只报告不修复
func (s *statsServiceImpl) AuditYear(ctx context.Context, year int) (*dto.StatsAuditDTO, error) {
	var (
		stored   []*model.UserYearStats
		expected []*model.UserYearStats
		storedC  *model.YearCommunityStats
		expectC  *model.YearCommunityStats
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stored, err = s.statsRepo.ListUserYearStats(gCtx, year)
		return err
	})
	g.Go(func() (err error) {
		expected, err = s.statsRepo.ComputeYearUserStats(gCtx, year)
		return err
	})
	g.Go(func() (err error) {
		storedC, err = s.statsRepo.GetYearCommunityStats(gCtx, year)
		return err
	})
	g.Go(func() (err error) {
		expectC, err = s.statsRepo.ComputeYearCommunityStats(gCtx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &dto.StatsAuditDTO{
		Year:                   year,
		ExpectedCommunityTotal: expectC.CommunityTotal,
		Users:                  make([]*dto.StatsDiffDTO, 0),
	}
	if storedC != nil {
		report.StoredCommunityTotal = storedC.CommunityTotal
	}

	storedMap := make(map[uint64]*model.UserYearStats, len(stored))
	for _, st := range stored {
		storedMap[st.UserID] = st
	}
	expectedMap := make(map[uint64]*model.UserYearStats, len(expected))
	for _, st := range expected {
		expectedMap[st.UserID] = st
	}

	userIDs := make([]uint64, 0, len(storedMap)+len(expectedMap))
	for id := range storedMap {
		userIDs = append(userIDs, id)
	}
	for id := range expectedMap {
		if _, ok := storedMap[id]; !ok {
			userIDs = append(userIDs, id)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, id := range userIDs {
		st, ex := storedMap[id], expectedMap[id]
		if st == nil {
			st = &model.UserYearStats{UserID: id, Year: year}
		}
		if ex == nil {
			ex = &model.UserYearStats{UserID: id, Year: year}
		}
		if rollup.Equal(st, ex) {
			continue
		}
		report.Users = append(report.Users, &dto.StatsDiffDTO{
			UserID:            id,
			Year:              year,
			StoredTotal:       st.MyTotal,
			StoredOnTime:      st.OnTimePushups,
			StoredRecovered:   st.RecoveredPushups,
			ExpectedTotal:     ex.MyTotal,
			ExpectedOnTime:    ex.OnTimePushups,
			ExpectedRecovered: ex.RecoveredPushups,
		})
	}

	report.Consistent = len(report.Users) == 0 && report.StoredCommunityTotal == report.ExpectedCommunityTotal
	return report, nil
}

// RepairUserYear 重算单个用户年度汇总，不一致时告警并覆盖，返回是否修复
func (s *statsServiceImpl) RepairUserYear(ctx context.Context, userID uint64, year int) (bool, error) {
	res, err := s.statsRepo.RepairUserYearStats(ctx, userID, year)
	if err != nil {
		return false, err
	}
	if !res.Repaired {
		return false, nil
	}

	stored, expected := res.Stored, res.Expected
	s.alert(ctx, fmt.Sprintf("user %d year %d: stored %d/%d/%d, ledger %d/%d/%d",
		userID, year,
		stored.MyTotal, stored.OnTimePushups, stored.RecoveredPushups,
		expected.MyTotal, expected.OnTimePushups, expected.RecoveredPushups,
	))
	bumpLeaderboard(ctx, s.store, year)
	return true, nil
}

// RepairYear 重算社区年度合计
func (s *statsServiceImpl) RepairYear(ctx context.Context, year int) (bool, error) {
	res, err := s.statsRepo.RepairYearCommunityStats(ctx, year)
	if err != nil {
		return false, err
	}
	if !res.Repaired {
		return false, nil
	}
	s.alert(ctx, fmt.Sprintf("community year %d: stored %d, ledger %d",
		year, res.Stored.CommunityTotal, res.Expected.CommunityTotal))
	return true, nil
}

func (s *statsServiceImpl) alert(ctx context.Context, content string) {
	log.ErrorContext(ctx, "AggregationInconsistency", "detail", content)
	if s.alerter == nil {
		return
	}
	if err := s.alerter.Alert(ctx, ErrAggregationInconsistency.Error(), content); err != nil && !errors.Is(err, context.Canceled) {
		log.WarnContext(ctx, "send alert error", "err", err)
	}
}

package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/model"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	pushupLockTTL   = time.Second * 10
	pushupLockRetry = 10
)

type PushupService interface {
	GetDailyTarget(ctx context.Context, date string) (*dto.DailyTargetDTO, error)
	GetTargetData(ctx context.Context, userID uint64, date string) (*dto.TargetDataDTO, error)
	AddPushups(ctx context.Context, userID uint64, req *dto.AddPushupsDTO) (*dto.AddPushupsResultDTO, error)
	GetMissedDays(ctx context.Context, userID uint64, today string) ([]*dto.MissedDayDTO, error)
	RecoverPushups(ctx context.Context, userID uint64, req *dto.RecoverPushupsDTO) (*dto.RecoverResultDTO, error)
	GetYearData(ctx context.Context, userID uint64, today string) ([]*dto.YearDayDTO, error)
	GetTodaysPushups(ctx context.Context, userID uint64, date string) (int, error)
	GetTotalMissedPushups(ctx context.Context, userID uint64, today string) (int, error)
	Today() time.Time
}

type pushupServiceImpl struct {
	targets    target.Source
	pushupRepo repository.PushupRepo
	userRepo   repository.UserRepo
	store      redis.Store
	alerter    Alerter
	loc        *time.Location
	now        func() time.Time
}

func NewPushupService(
	targets target.Source,
	pushupRepo repository.PushupRepo,
	userRepo repository.UserRepo,
	store redis.Store,
	alerter Alerter,
	loc *time.Location,
) PushupService {
	return &pushupServiceImpl{
		targets:    targets,
		pushupRepo: pushupRepo,
		userRepo:   userRepo,
		store:      store,
		alerter:    alerter,
		loc:        loc,
		now:        time.Now,
	}
}

// Today 服务端时区下的今天
func (s *pushupServiceImpl) Today() time.Time {
	return target.Today(s.now(), s.loc)
}

// resolveToday 客户端未传 today 时取服务端今天
func (s *pushupServiceImpl) resolveToday(today string) (time.Time, error) {
	if today == "" {
		return s.Today(), nil
	}
	t, err := target.ParseDate(today)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (s *pushupServiceImpl) GetDailyTarget(ctx context.Context, date string) (*dto.DailyTargetDTO, error) {
	day, err := s.resolveToday(date)
	if err != nil {
		return nil, err
	}
	dayTarget := s.targets.DailyTarget(day)
	return &dto.DailyTargetDTO{
		Date:    target.FormatDate(day),
		Target:  dayTarget,
		RestDay: dayTarget == 0,
	}, nil
}

func (s *pushupServiceImpl) GetTargetData(ctx context.Context, userID uint64, date string) (*dto.TargetDataDTO, error) {
	day, err := s.resolveToday(date)
	if err != nil {
		return nil, err
	}
	res := &dto.TargetDataDTO{Target: s.targets.DailyTarget(day)}
	if userID == 0 {
		return res, nil
	}
	res.Current, err = s.pushupRepo.SumUserDate(ctx, userID, target.FormatDate(day))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *pushupServiceImpl) GetTodaysPushups(ctx context.Context, userID uint64, date string) (int, error) {
	data, err := s.GetTargetData(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	return data.Current, nil
}

func (s *pushupServiceImpl) AddPushups(ctx context.Context, userID uint64, req *dto.AddPushupsDTO) (*dto.AddPushupsResultDTO, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	day, err := target.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	// 允许客户端日历与服务端相差一天
	today := s.Today()
	if day.Before(today.AddDate(0, 0, -1)) || day.After(today.AddDate(0, 0, 1)) {
		return nil, ErrInvalidDate
	}
	date := target.FormatDate(day)

	unlock, err := s.lock(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dayTarget := s.targets.DailyTarget(day)
	current, err := s.pushupRepo.SumUserDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	remaining := max(0, dayTarget-current)

	if req.Count < 1 {
		return nil, newValidationError("You can't log less than 1 pushup")
	}
	if req.Count > remaining {
		return nil, newValidationError("You can't log more than the remaining %s", pluralize(remaining))
	}

	entry := &model.PushupEntry{
		UserID: userID,
		Count:  req.Count,
		Date:   date,
	}
	if err := s.commitEntry(ctx, user, entry, current+req.Count, dayTarget); err != nil {
		return nil, err
	}

	return &dto.AddPushupsResultDTO{
		Success: true,
		Message: "Pushups logged successfully!",
		Total:   current + req.Count,
	}, nil
}

func (s *pushupServiceImpl) GetMissedDays(ctx context.Context, userID uint64, today string) ([]*dto.MissedDayDTO, error) {
	day, err := s.resolveToday(today)
	if err != nil {
		return nil, err
	}
	if userID == 0 {
		return make([]*dto.MissedDayDTO, 0), nil
	}
	return s.missedDays(ctx, userID, day)
}

func (s *pushupServiceImpl) GetTotalMissedPushups(ctx context.Context, userID uint64, today string) (int, error) {
	days, err := s.GetMissedDays(ctx, userID, today)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range days {
		total += d.Missed
	}
	return total, nil
}

// missedDays 从流水重新推导，不走缓存
func (s *pushupServiceImpl) missedDays(ctx context.Context, userID uint64, today time.Time) ([]*dto.MissedDayDTO, error) {
	start := target.YearStart(today.Year())
	if !start.Before(today) {
		return make([]*dto.MissedDayDTO, 0), nil
	}
	totals, err := s.pushupRepo.SumUserDateRange(ctx, userID, target.FormatDate(start), target.FormatDate(today.AddDate(0, 0, -1)))
	if err != nil {
		return nil, err
	}
	return missedDays(s.targets, totals, today), nil
}

func (s *pushupServiceImpl) RecoverPushups(ctx context.Context, userID uint64, req *dto.RecoverPushupsDTO) (*dto.RecoverResultDTO, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	day, err := target.ParseDate(req.TargetDate)
	if err != nil {
		return nil, ErrInvalidRecoveryDate
	}
	date := target.FormatDate(day)

	unlock, err := s.lock(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 必须在锁内重新推导，不能信任客户端的欠账数
	days, err := s.missedDays(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}
	missed := findMissedDay(days, date)
	if missed == nil {
		return nil, ErrInvalidRecoveryDate
	}

	if req.Count < 1 {
		return nil, newValidationError("You can't recover less than 1 pushup")
	}
	if req.Count > missed.Missed {
		return nil, newValidationError("You can only recover up to %s for this day", pluralize(missed.Missed))
	}

	entry := &model.PushupEntry{
		UserID:     userID,
		Count:      req.Count,
		Date:       date,
		IsRecovery: true,
	}
	if err := s.commitEntry(ctx, user, entry, missed.Completed+req.Count, missed.Target); err != nil {
		return nil, err
	}

	return &dto.RecoverResultDTO{
		Success: true,
		Message: "Recovered " + pluralize(req.Count) + " successfully!",
	}, nil
}

func (s *pushupServiceImpl) GetYearData(ctx context.Context, userID uint64, today string) ([]*dto.YearDayDTO, error) {
	day, err := s.resolveToday(today)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int)
	if userID != 0 {
		start, end := target.YearRange(day.Year())
		totals, err = s.pushupRepo.SumUserDateRange(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
	}
	return yearDays(s.targets, totals, day), nil
}

func (s *pushupServiceImpl) requireUser(ctx context.Context, userID uint64) (*model.User, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// lock 同一用户同一天的记录与补做串行执行
func (s *pushupServiceImpl) lock(ctx context.Context, userID uint64, date string) (func(), error) {
	key := consts.PushupLockKey(userID, date)
	owner := uuid.NewString()
	ok, err := s.store.TryLock(ctx, key, owner, pushupLockTTL, pushupLockRetry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		s.store.UnLock(context.WithoutCancel(ctx), key, owner)
	}, nil
}

// commitEntry 写入流水；汇总失败只告警不报错
func (s *pushupServiceImpl) commitEntry(ctx context.Context, user *model.User, entry *model.PushupEntry, runningTotal, dayTarget int) error {
	year, _ := target.YearOf(entry.Date)

	err := s.pushupRepo.CreateEntry(ctx, entry)
	if err != nil {
		if !errors.Is(err, repository.ErrStatsNotApplied) {
			return err
		}
		reportInconsistency(ctx, s.store, s.alerter, entry.UserID, year, err)
	}

	bumpLeaderboard(ctx, s.store, year)

	activity := &dto.ActivityEntryDTO{
		ID:        entry.ID,
		UserName:  formatUserName(user.Name),
		Count:     entry.Count,
		Date:      entry.Date,
		CreatedAt: entry.CreatedAt,
		Type:      classifyEntry(entry, runningTotal, dayTarget),
		Target:    dayTarget,
	}
	payload, err := json.Marshal(activity)
	if err != nil {
		log.WarnContext(ctx, "marshal activity error", "err", err)
		return nil
	}
	if err := s.store.Publish(ctx, consts.ActivityChannel, payload); err != nil {
		log.WarnContext(ctx, "publish activity error", "err", err)
	}
	return nil
}

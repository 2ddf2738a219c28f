package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"context"
	log "log/slog"
)

type ActivityService interface {
	GetActivityFeed(ctx context.Context, cursor int64, limit int) (*dto.ActivityFeedDTO, error)
}

type activityServiceImpl struct {
	targets    target.Source
	pushupRepo repository.PushupRepo
	userRepo   repository.UserRepo
}

func NewActivityService(targets target.Source, pushupRepo repository.PushupRepo, userRepo repository.UserRepo) ActivityService {
	return &activityServiceImpl{
		targets:    targets,
		pushupRepo: pushupRepo,
		userRepo:   userRepo,
	}
}

// GetActivityFeed 按提交时间倒序分页，多取一条判断是否还有下一页
func (s *activityServiceImpl) GetActivityFeed(ctx context.Context, cursor int64, limit int) (*dto.ActivityFeedDTO, error) {
	if limit <= 0 {
		limit = consts.ActivityDefaultLimit
	}
	if limit > consts.ActivityMaxLimit {
		limit = consts.ActivityMaxLimit
	}

	entries, err := s.pushupRepo.GetEntriesBefore(ctx, cursor, limit+1)
	if err != nil {
		return nil, err
	}
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	res := &dto.ActivityFeedDTO{Entries: make([]*dto.ActivityEntryDTO, 0, len(entries))}
	if len(entries) == 0 {
		return res, nil
	}

	keySet := make(map[repository.UserDate]struct{})
	userSet := make(map[uint64]struct{})
	keys := make([]repository.UserDate, 0)
	userIDs := make([]uint64, 0)
	for _, e := range entries {
		key := repository.UserDate{UserID: e.UserID, Date: e.Date}
		if _, ok := keySet[key]; !ok {
			keySet[key] = struct{}{}
			keys = append(keys, key)
		}
		if _, ok := userSet[e.UserID]; !ok {
			userSet[e.UserID] = struct{}{}
			userIDs = append(userIDs, e.UserID)
		}
	}

	sameDay, err := s.pushupRepo.GetEntriesByUserDates(ctx, keys)
	if err != nil {
		return nil, err
	}
	running := runningTotals(sameDay)

	users, err := s.userRepo.GetUserByIds(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := userNames(users)

	targets := make(map[string]int)
	for _, e := range entries {
		dayTarget, ok := targets[e.Date]
		if !ok {
			day, err := target.ParseDate(e.Date)
			if err != nil {
				log.WarnContext(ctx, "activity entry has malformed date", "id", e.ID, "date", e.Date)
			} else {
				dayTarget = s.targets.DailyTarget(day)
			}
			targets[e.Date] = dayTarget
		}

		runningTotal, ok := running[e.ID]
		if !ok {
			runningTotal = e.Count
		}

		res.Entries = append(res.Entries, &dto.ActivityEntryDTO{
			ID:        e.ID,
			UserName:  formatUserName(names[e.UserID]),
			Count:     e.Count,
			Date:      e.Date,
			CreatedAt: e.CreatedAt,
			Type:      classifyEntry(e, runningTotal, dayTarget),
			Target:    dayTarget,
		})
	}

	if hasMore {
		next := entries[len(entries)-1].CreatedAt
		res.NextCursor = &next
	}
	return res, nil
}

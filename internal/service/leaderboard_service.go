package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/redis"
	"Purng/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

const leaderboardCacheTTL = time.Second * 30

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, year int) ([]*dto.LeaderboardRowDTO, error)
}

type leaderboardServiceImpl struct {
	statsRepo repository.StatsRepo
	userRepo  repository.UserRepo
	store     redis.Store
}

func NewLeaderboardService(statsRepo repository.StatsRepo, userRepo repository.UserRepo, store redis.Store) LeaderboardService {
	return &leaderboardServiceImpl{
		statsRepo: statsRepo,
		userRepo:  userRepo,
		store:     store,
	}
}

func (s *leaderboardServiceImpl) GetLeaderboard(ctx context.Context, year int) ([]*dto.LeaderboardRowDTO, error) {
	// 先读版本再读库：并发写提交后递增版本，旧快照只会落到没人再读的旧键上
	version, err := s.store.GetValue(ctx, consts.LeaderboardVersionKeyOf(year))
	if err != nil {
		log.WarnContext(ctx, "read leaderboard version error", "err", err)
		return s.buildLeaderboard(ctx, year)
	}
	key := consts.LeaderboardCacheKey(year, version)
	if cached, err := s.store.GetValue(ctx, key); err != nil {
		log.WarnContext(ctx, "read leaderboard cache error", "err", err)
	} else if cached != "" {
		var rows []*dto.LeaderboardRowDTO
		if err := json.Unmarshal([]byte(cached), &rows); err == nil {
			return rows, nil
		}
		log.WarnContext(ctx, "leaderboard cache corrupted", "key", key)
	}

	rows, err := s.buildLeaderboard(ctx, year)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		if err := s.store.SetWithExpiration(ctx, key, payload, leaderboardCacheTTL); err != nil {
			log.WarnContext(ctx, "write leaderboard cache error", "err", err)
		}
	}
	return rows, nil
}

func (s *leaderboardServiceImpl) buildLeaderboard(ctx context.Context, year int) ([]*dto.LeaderboardRowDTO, error) {
	stats, err := s.statsRepo.ListUserYearStats(ctx, year)
	if err != nil {
		return nil, err
	}
	userIDs := make([]uint64, 0, len(stats))
	for _, st := range stats {
		userIDs = append(userIDs, st.UserID)
	}
	users, err := s.userRepo.GetUserByIds(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	return rankStats(stats, userNames(users))
}

// bumpLeaderboard 写入提交后调用，让该年已缓存的排行榜失效
func bumpLeaderboard(ctx context.Context, store redis.Store, year int) {
	if _, err := store.Incr(ctx, consts.LeaderboardVersionKeyOf(year)); err != nil {
		log.WarnContext(ctx, "bump leaderboard version error", "year", year, "err", err)
	}
}

package consts

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	StatsDirtyKey           = "stats:dirty"
	StatsDirtyProcessingKey = "stats:dirty:processing"
	LeaderboardKey          = "leaderboard:"
	LeaderboardVersionKey   = "leaderboard:ver:"
	ActivityChannel         = "activity:feed"
)

const (
	PushupLock     = "lock:pushup:"
	StatsAuditLock = "lock:stats:audit"
	ReminderLock   = "lock:reminder:"
)

// PushupLockKey 每个 (用户, 日期) 一把锁
func PushupLockKey(userID uint64, date string) string {
	return PushupLock + strconv.FormatUint(userID, 10) + ":" + date
}

// LeaderboardCacheKey 排行榜缓存，按版本号分键，写入只需递增版本
func LeaderboardCacheKey(year int, version string) string {
	if version == "" {
		version = "0"
	}
	return LeaderboardKey + strconv.Itoa(year) + ":v" + version
}

// LeaderboardVersionKeyOf 某年排行榜的版本号
func LeaderboardVersionKeyOf(year int) string {
	return LeaderboardVersionKey + strconv.Itoa(year)
}

// StatsDirtyMember 脏集合成员 "userID:year"
func StatsDirtyMember(userID uint64, year int) string {
	return strconv.FormatUint(userID, 10) + ":" + strconv.Itoa(year)
}

// ParseStatsDirtyMember 解析脏集合成员
func ParseStatsDirtyMember(member string) (uint64, int, error) {
	uid, y, ok := strings.Cut(member, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed dirty member %q", member)
	}
	userID, err := strconv.ParseUint(uid, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed dirty member %q: %w", member, err)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed dirty member %q: %w", member, err)
	}
	return userID, year, nil
}

package util

import (
	"Purng/internal/service"
	"strconv"
)

// ParseCursor 动态流游标为 created_at 毫秒时间戳，空串表示第一页
func ParseCursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, service.ErrParamInvalid
	}
	return cursor, nil
}

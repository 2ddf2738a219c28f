package target

import (
	"fmt"
	"time"
)

// DateLayout 日期统一格式
const DateLayout = time.DateOnly

// ParseDate 解析 YYYY-MM-DD，返回 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate 按日历日期格式化，忽略时区换算
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight 取 t 所在日历日的 UTC 零点
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today 指定时区下的今天
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Midnight(now.In(loc))
}

// DayOfYear 一年中的第几天，1 起
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// YearStart 某年 1 月 1 日
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// YearRange 某年首尾日期字符串，可直接用于字符串比较
func YearRange(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)
}

// YearOf 从 YYYY-MM-DD 中取年份
func YearOf(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

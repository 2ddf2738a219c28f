package util

import (
	"Purng/internal/service"
	"strconv"
)

// ParseOptionalInt 查询参数缺省时返回 0
func ParseOptionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.ErrParamInvalid
	}
	return v, nil
}

// ParseYear 年份缺省为 0，由 service 取当前年
func ParseYear(raw string) (int, error) {
	year, err := ParseOptionalInt(raw)
	if err != nil {
		return 0, err
	}
	if year != 0 && (year < 1970 || year > 9999) {
		return 0, service.ErrParamInvalid
	}
	return year, nil
}

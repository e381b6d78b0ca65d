package util

import (
	"strconv"
	"time"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseDate 按 DateFormat 解析日期，解析失败时返回零值
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateOnly 截断到当天零点，流水按日历日比较时使用
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

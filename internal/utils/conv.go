package utils

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid id")

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

// ParseID 解析 URL 中的主键，0 和负数视为非法
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

// ParseOptionalID 空字符串返回 nil，用于可选的 parent 参数
func ParseOptionalID(s string) (*uint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

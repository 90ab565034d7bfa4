package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseID 解析路径中的ID，非法或为 0 时返回校验错误
func ParseID(s string) (uint, error) {
	id := MustParseUint(s)
	if id == 0 {
		return 0, NewValidationError("invalid id %q", s)
	}
	return id, nil
}

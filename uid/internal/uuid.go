package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDV7 生成 UUID v7 格式的唯一标识符
func GenerateUUIDV7() string {
	u, err := uuid.NewV7()
	if err != nil {
		// 随机源出错时退回 v4
		return uuid.New().String()
	}
	return u.String()
}

// IsValidUUID 验证字符串是否为有效的 UUID v7 格式
func IsValidUUID(s string) bool {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return parsed.Version() == 7 && parsed.Variant() == uuid.RFC4122
}

// ExtractTimeFromUUIDV7 从 UUID v7 提取时间信息
func ExtractTimeFromUUIDV7(s string) (time.Time, error) {
	if !IsValidUUID(s) {
		return time.Time{}, fmt.Errorf("无效的 UUID v7 格式: %q", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析 UUID 失败: %w", err)
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}

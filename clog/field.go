package clog

import (
	"time"

	"go.uber.org/zap"
)

// Field 是 zap.Field 的别名
type Field = zap.Field

// 直接导出 zap 的字段构造函数
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Uint64   = zap.Uint64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Time     = zap.Time
	Duration = zap.Duration
	Any      = zap.Any
	Strings  = zap.Strings
	Ints     = zap.Ints
	Err      = zap.Error
	Stringer = zap.Stringer
)

// LeaseID 记录租约对应的标识符
func LeaseID(id int) Field {
	return zap.Int("lease_id", id)
}

// ExpiresAt 记录租约到期时间
func ExpiresAt(t time.Time) Field {
	return zap.Time("expires_at", t)
}

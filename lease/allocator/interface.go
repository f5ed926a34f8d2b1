package allocator

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrOutOfRange 标识符不在 [Min, Max] 范围内
	ErrOutOfRange = errors.New("id out of range")
	// ErrNotLeased 标识符当前空闲或租约已过期，客户端必须重新 Acquire
	ErrNotLeased = errors.New("id not leased")
	// ErrPoolExhausted 范围内所有标识符都被持有且未过期
	ErrPoolExhausted = errors.New("no id available")
)

// Allocator 在固定范围内分配带租约的整数标识符
// 所有方法并发安全，且彼此互斥执行
type Allocator interface {
	// Acquire 从游标位置开始轮询，返回第一个空闲或已过期的标识符
	Acquire(ctx context.Context) (Grant, error)
	// Renew 延长一个仍然有效的租约
	Renew(ctx context.Context, id int) (Grant, error)
	// Sweep 回收所有已过期的租约，返回回收数量
	Sweep(ctx context.Context) int
	// Snapshot 返回当前租约表的统计信息
	Snapshot() Snapshot
}

// Grant 代表一次成功的分配或续租
type Grant struct {
	ID        int
	ExpiresAt time.Time
}

// Snapshot 租约表的只读统计
type Snapshot struct {
	Min    int
	Max    int
	Size   int
	Leased int
	Cursor int
}

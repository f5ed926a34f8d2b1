package client

import (
	"context"
	"time"
)

// InstanceIDAllocator 从租约服务获取一个会自动续租的实例 ID
type InstanceIDAllocator interface {
	// AcquireID 向服务申请一个 ID 并启动后台心跳
	// ctx 只控制本次申请请求，不影响之后的心跳
	AcquireID(ctx context.Context) (AllocatedID, error)
}

// AllocatedID 代表一个被当前进程持有的、会自动续租的 ID
type AllocatedID interface {
	// ID 返回被分配的整数 ID
	ID() int
	// ExpiresAt 返回最近一次成功续租后服务端给出的到期时间
	ExpiresAt() time.Time
	// Lost 在租约丢失后被关闭，此后不能再使用这个 ID
	Lost() <-chan struct{}
	// Close 停止心跳。服务端没有释放接口，ID 会在租约到期后被回收。幂等操作
	Close(ctx context.Context) error
}

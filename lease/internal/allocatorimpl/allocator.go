package allocatorimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
	"github.com/ceyewan/idlease/lease/internal/table"
	"github.com/ceyewan/idlease/metrics"
)

// leaseAllocator 基于内存租约表的标识符分配器
// 租约表和游标是一个整体，所有读写都在 mu 内完成
type leaseAllocator struct {
	mu      sync.Mutex
	table   *table.Table
	cursor  int // 下一次扫描的起始下标，始终在 [0, size) 内
	timeout time.Duration

	clock   clock.Clock
	logger  clog.Logger
	metrics metrics.MonitoringService
}

var _ allocator.Allocator = (*leaseAllocator)(nil)

// NewLeaseAllocator 创建分配器，min > max 时返回错误
func NewLeaseAllocator(min, max int, timeout time.Duration, clk clock.Clock, logger clog.Logger, ms metrics.MonitoringService) (allocator.Allocator, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("lease timeout must be positive, got %s", timeout)
	}

	tbl, err := table.New(min, max)
	if err != nil {
		return nil, err
	}

	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = clog.Namespace("lease")
	}
	if ms == nil {
		ms = metrics.NoopMonitoringService{}
	}

	a := &leaseAllocator{
		table:   tbl,
		timeout: timeout,
		clock:   clk,
		logger:  logger,
		metrics: ms,
	}

	a.logger.Info("lease allocator created",
		clog.Int("min", min),
		clog.Int("max", max),
		clog.Int("size", tbl.Size()),
		clog.Duration("timeout", timeout))
	return a, nil
}

// Acquire 从游标开始按递增顺序扫描（到 max 后回绕到 min）
// 已过期但还没被回收的租约视为空闲
func (a *leaseAllocator) Acquire(ctx context.Context) (allocator.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	size := a.table.Size()

	for k := 0; k < size; k++ {
		idx := (a.cursor + k) % size
		id := a.table.IDAt(idx)
		if !a.table.IsAvailable(id, now) {
			continue
		}

		reused := a.table.IsExpired(id, now)
		expiresAt := now.Add(a.timeout)
		if err := a.table.MarkLeased(id, expiresAt); err != nil {
			return allocator.Grant{}, err
		}
		a.cursor = (idx + 1) % size

		a.metrics.LeaseGained(id)
		a.metrics.LeasesHeld(a.table.Leased())

		logger := clog.WithTrace(ctx, a.logger)
		if reused {
			logger.Debug("expired lease reassigned before sweep", clog.LeaseID(id))
		}
		logger.Debug("lease acquired", clog.LeaseID(id), clog.ExpiresAt(expiresAt))
		return allocator.Grant{ID: id, ExpiresAt: expiresAt}, nil
	}

	a.metrics.PoolExhausted()
	clog.WithTrace(ctx, a.logger).Warn("id pool exhausted", clog.Int("size", size))
	return allocator.Grant{}, fmt.Errorf("%w: all %d ids in [%d, %d] are leased",
		allocator.ErrPoolExhausted, size, a.table.Min(), a.table.Max())
}

// Renew 延长一个未过期租约的到期时间，不会改变 id
// 已过期的租约立即归还到空闲池，客户端必须重新 Acquire
func (a *leaseAllocator) Renew(ctx context.Context, id int) (allocator.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := clog.WithTrace(ctx, a.logger)

	current, err := a.table.Get(id)
	if err != nil {
		a.metrics.LeaseRejected(metrics.ReasonOutOfRange)
		return allocator.Grant{}, err
	}

	if current.State != table.Leased {
		a.metrics.LeaseRejected(metrics.ReasonNotLeased)
		return allocator.Grant{}, fmt.Errorf("%w: %d is free", allocator.ErrNotLeased, id)
	}

	now := a.clock.Now()
	if !current.ExpiresAt.After(now) {
		// 持有者可能已经和新的持有者共用过这个 id
		if err := a.table.MarkFree(id); err != nil {
			return allocator.Grant{}, err
		}
		a.metrics.LeaseRejected(metrics.ReasonExpired)
		a.metrics.LeasesHeld(a.table.Leased())
		logger.Warn("heartbeat for expired lease",
			clog.LeaseID(id),
			clog.ExpiresAt(current.ExpiresAt),
			clog.Duration("late_by", now.Sub(current.ExpiresAt)))
		return allocator.Grant{}, fmt.Errorf("%w: %d expired at %s", allocator.ErrNotLeased, id, current.ExpiresAt.Format(time.RFC3339Nano))
	}

	expiresAt := now.Add(a.timeout)
	if expiresAt.Before(current.ExpiresAt) {
		expiresAt = current.ExpiresAt
	}
	if err := a.table.MarkLeased(id, expiresAt); err != nil {
		return allocator.Grant{}, err
	}

	a.metrics.LeaseRenewed(id)
	logger.Debug("lease renewed", clog.LeaseID(id), clog.ExpiresAt(expiresAt))
	return allocator.Grant{ID: id, ExpiresAt: expiresAt}, nil
}

// Sweep 遍历整个范围，把过期租约置为空闲
func (a *leaseAllocator) Sweep(ctx context.Context) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	reclaimed := 0
	for id := a.table.Min(); ; id++ {
		if a.table.IsExpired(id, now) {
			_ = a.table.MarkFree(id)
			reclaimed++
		}
		if id == a.table.Max() {
			break
		}
	}

	if reclaimed > 0 {
		a.metrics.LeasesReclaimed(reclaimed)
		a.metrics.LeasesHeld(a.table.Leased())
		clog.WithTrace(ctx, a.logger).Info("expired leases reclaimed",
			clog.Int("reclaimed", reclaimed),
			clog.Int("leased", a.table.Leased()))
	}
	return reclaimed
}

// Snapshot 返回当前统计信息
func (a *leaseAllocator) Snapshot() allocator.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return allocator.Snapshot{
		Min:    a.table.Min(),
		Max:    a.table.Max(),
		Size:   a.table.Size(),
		Leased: a.table.Leased(),
		Cursor: a.table.IDAt(a.cursor),
	}
}

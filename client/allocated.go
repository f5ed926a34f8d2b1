package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
)

// allocatedID 已分配 ID 的具体实现，后台按固定间隔发送心跳
type allocatedID struct {
	id     int
	client *Client
	logger clog.Logger
	ticker *clock.Ticker

	mu        sync.RWMutex
	expiresAt time.Time
	lastRenew time.Time

	lost      chan struct{}
	lostOnce  sync.Once
	ctx       context.Context // Close 时取消，中断进行中的心跳
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ AllocatedID = (*allocatedID)(nil)

// AcquireID 申请一个 ID 并启动心跳
func (c *Client) AcquireID(ctx context.Context) (AllocatedID, error) {
	l, err := c.Next(ctx)
	if err != nil {
		return nil, err
	}

	clk := c.options.clock
	hbCtx, cancel := context.WithCancel(context.Background())
	a := &allocatedID{
		id:        l.ID,
		client:    c,
		logger:    c.options.logger.With(clog.LeaseID(l.ID)),
		ticker:    clk.Ticker(c.config.EffectiveHeartbeatInterval()),
		expiresAt: l.ExpiresAt(),
		lastRenew: clk.Now(),
		lost:      make(chan struct{}),
		ctx:       hbCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	a.wg.Add(1)
	go a.keepAlive()

	a.logger.Info("ID acquired",
		clog.ExpiresAt(a.expiresAt),
		clog.Duration("heartbeat_interval", c.config.EffectiveHeartbeatInterval()))
	return a, nil
}

func (a *allocatedID) ID() int {
	return a.id
}

func (a *allocatedID) ExpiresAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.expiresAt
}

func (a *allocatedID) Lost() <-chan struct{} {
	return a.lost
}

// Close 停止心跳并等待后台协程退出
func (a *allocatedID) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		close(a.done)
		a.cancel()
	})

	waited := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		a.logger.Info("ID released, lease will expire on the server")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// keepAlive 保持租约活跃
func (a *allocatedID) keepAlive() {
	defer a.wg.Done()
	defer a.ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-a.ticker.C:
			if !a.renew() {
				return
			}
		}
	}
}

// renew 发送一次心跳，返回 false 表示租约已丢失
func (a *allocatedID) renew() bool {
	l, err := a.client.Heartbeat(a.ctx, a.id)
	now := a.client.options.clock.Now()

	if err != nil {
		if a.ctx.Err() != nil {
			return false
		}
		if errors.Is(err, allocator.ErrNotLeased) || errors.Is(err, allocator.ErrOutOfRange) {
			a.markLost("server rejected heartbeat", err)
			return false
		}

		a.mu.RLock()
		deadline := a.lastRenew.Add(a.client.config.LeaseTimeout)
		a.mu.RUnlock()
		if !now.Before(deadline) {
			a.markLost("no successful heartbeat within lease timeout", err)
			return false
		}
		a.logger.Warn("heartbeat failed, will retry", clog.Err(err))
		return true
	}

	a.mu.Lock()
	a.expiresAt = l.ExpiresAt()
	a.lastRenew = now
	a.mu.Unlock()
	a.logger.Debug("heartbeat ok", clog.ExpiresAt(l.ExpiresAt()))
	return true
}

func (a *allocatedID) markLost(reason string, err error) {
	a.lostOnce.Do(func() {
		a.logger.Error("lease lost", clog.String("reason", reason), clog.Err(err))
		close(a.lost)
	})
}

package lease

import (
	"context"
	"fmt"
	"sync"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
	"github.com/ceyewan/idlease/lease/internal/allocatorimpl"
	"github.com/ceyewan/idlease/lease/internal/reclaimer"
)

// Grant 和 Snapshot 直接复用 allocator 包的类型
type (
	Grant    = allocator.Grant
	Snapshot = allocator.Snapshot
)

var (
	ErrOutOfRange    = allocator.ErrOutOfRange
	ErrNotLeased     = allocator.ErrNotLeased
	ErrPoolExhausted = allocator.ErrPoolExhausted
)

// Provider 租约分配组件的主接口
type Provider interface {
	allocator.Allocator

	// Close 停止后台回收任务，不会清空租约表
	Close() error
}

type leaseProvider struct {
	allocator.Allocator

	config    *Config
	logger    clog.Logger
	reclaimer *reclaimer.Reclaimer
	closeOnce sync.Once
}

// New 创建租约分配组件并启动后台回收
func New(ctx context.Context, config *Config, opts ...Option) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lease config: %w", err)
	}

	options := parseOptions(opts)

	alloc, err := allocatorimpl.NewLeaseAllocator(config.Min, config.Max, config.Timeout,
		options.clock, options.logger, options.monitor)
	if err != nil {
		return nil, err
	}

	r, err := reclaimer.New(alloc, config.EffectiveSweepInterval(), options.clock,
		options.logger.Namespace("reclaimer"))
	if err != nil {
		return nil, err
	}
	r.Start()

	return &leaseProvider{
		Allocator: alloc,
		config:    config,
		logger:    options.logger,
		reclaimer: r,
	}, nil
}

func (p *leaseProvider) Close() error {
	p.closeOnce.Do(func() {
		p.reclaimer.Stop()
		snap := p.Snapshot()
		p.logger.Info("lease provider closed",
			clog.Int("leased", snap.Leased),
			clog.Int("size", snap.Size))
	})
	return nil
}

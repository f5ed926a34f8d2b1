package reclaimer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/clog"
)

// Sweeper 回收所有过期租约，返回回收数量
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Reclaimer 按固定间隔调用 Sweep 的后台任务
type Reclaimer struct {
	sweeper  Sweeper
	interval time.Duration
	clock    clock.Clock
	logger   clog.Logger

	mu       sync.Mutex
	ticker   *clock.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
}

// New 创建回收器，需要调用 Start 才会开始工作
func New(sweeper Sweeper, interval time.Duration, clk clock.Clock, logger clog.Logger) (*Reclaimer, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = clog.Namespace("reclaimer")
	}
	return &Reclaimer{
		sweeper:  sweeper,
		interval: interval,
		clock:    clk,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start 启动后台回收协程，重复调用无效果
func (r *Reclaimer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	// ticker 在返回前创建，Start 之后推进的时钟一定会触发它
	r.ticker = r.clock.Ticker(r.interval)
	r.wg.Add(1)
	go r.run()

	r.logger.Info("reclaimer started", clog.Duration("interval", r.interval))
}

func (r *Reclaimer) run() {
	defer r.wg.Done()
	defer r.ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			if n := r.sweeper.Sweep(ctx); n > 0 {
				r.logger.Debug("sweep finished", clog.Int("reclaimed", n))
			}
		}
	}
}

// Stop 停止回收协程并等待其退出，可以重复调用
func (r *Reclaimer) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

package lease

import (
	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/metrics"
)

// Options 租约分配器的可选依赖
type Options struct {
	logger  clog.Logger
	clock   clock.Clock
	monitor metrics.MonitoringService
}

// Option 函数式选项
type Option func(*Options)

// WithLogger 注入日志依赖
func WithLogger(logger clog.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock 注入时钟，测试中使用 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(opts *Options) {
		opts.clock = clk
	}
}

// WithMonitoringService 注入指标上报
func WithMonitoringService(ms metrics.MonitoringService) Option {
	return func(opts *Options) {
		opts.monitor = ms
	}
}

func parseOptions(opts []Option) *Options {
	result := &Options{
		logger:  clog.Namespace("lease"),
		clock:   clock.New(),
		monitor: metrics.NoopMonitoringService{},
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

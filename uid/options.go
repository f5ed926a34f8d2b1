package uid

import (
	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/client"
	"github.com/ceyewan/idlease/clog"
)

// Options 定义 uid 组件的配置选项
type Options struct {
	logger    clog.Logger
	allocator client.InstanceIDAllocator
	clock     clock.Clock
}

// Option 定义配置选项的函数类型
type Option func(*Options)

// WithLogger 注入日志依赖
func WithLogger(logger clog.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithInstanceIDAllocator 从租约服务获取实例 ID
// 租约丢失后 GenerateSnowflake 返回 ErrInstanceIDLost
func WithInstanceIDAllocator(a client.InstanceIDAllocator) Option {
	return func(opts *Options) {
		opts.allocator = a
	}
}

// WithClock 注入 Snowflake 使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(opts *Options) {
		opts.clock = clk
	}
}

func parseOptions(opts []Option) *Options {
	result := &Options{
		logger: clog.Namespace("uid"),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

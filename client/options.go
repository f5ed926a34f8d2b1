package client

import (
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/ceyewan/idlease/clog"
)

// Options 客户端的可选依赖
type Options struct {
	logger     clog.Logger
	clock      clock.Clock
	httpClient *http.Client
}

// Option 函数式选项
type Option func(*Options)

// WithLogger 注入日志依赖
func WithLogger(logger clog.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock 注入心跳使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(opts *Options) {
		opts.clock = clk
	}
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(opts *Options) {
		opts.httpClient = c
	}
}

func parseOptions(opts []Option) *Options {
	result := &Options{
		logger:     clog.Namespace("lease-client"),
		clock:      clock.New(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

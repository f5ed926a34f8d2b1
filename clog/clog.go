package clog

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ceyewan/idlease/clog/internal"
	"go.uber.org/zap"
)

// Logger 定义统一的日志记录接口，封装 zap.Logger
type Logger = internal.Logger

// traceIDKey 类型安全的上下文键
type traceIDKey struct{}

var (
	// defaultLogger 全局默认日志器，使用 atomic.Value 保证并发安全
	defaultLogger atomic.Value

	// defaultLoggerOnce 确保默认日志器只初始化一次
	defaultLoggerOnce sync.Once
)

// SetExitFunc 设置 Fatal 日志之后调用的退出函数，用于测试
func SetExitFunc(fn func(int)) {
	internal.SetExitFunc(fn)
}

// WithTraceID 将 trace_id 注入到 context 中
// 通常在请求入口处调用，如 HTTP 中间件
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID 从 context 中取出 trace_id，不存在时返回空字符串
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// WithContext 从 context 中获取 Logger 实例
// 如果 ctx 中包含 trace_id，返回的 Logger 会在每条日志中添加 "trace_id" 字段
func WithContext(ctx context.Context) Logger {
	return WithTrace(ctx, getDefaultLogger())
}

// WithTrace 给指定的 Logger 附加 ctx 中的 trace_id
func WithTrace(ctx context.Context, logger Logger) Logger {
	if id := TraceID(ctx); id != "" {
		return logger.With(zap.String("trace_id", id))
	}
	return logger
}

// C 是 WithContext 的简写
func C(ctx context.Context) Logger {
	return WithContext(ctx)
}

// getDefaultLogger 获取全局默认日志器，第一次调用时创建
// 初始化失败时使用 fallback logger
func getDefaultLogger() Logger {
	defaultLoggerOnce.Do(func() {
		logger, err := internal.NewLogger(GetDefaultConfig("development").toInternal(), "")
		if err != nil {
			log.Printf("clog: failed to initialize default logger: %v", err)
			logger = internal.NewFallbackLogger()
		}
		defaultLogger.Store(logger)
	})
	return defaultLogger.Load().(Logger)
}

// New 创建独立的 Logger 实例
// 初始化失败时返回 fallback logger 和原始错误
func New(ctx context.Context, config *Config, opts ...Option) (Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := ParseOptions(opts...)
	logger, err := internal.NewLogger(config.toInternal(), options.Namespace)
	if err != nil {
		return internal.NewFallbackLogger(), err
	}
	return logger, nil
}

// Init 初始化全局默认日志器，通常在 main 函数中调用一次
// 初始化失败时不会替换现有 logger；重复调用会原子替换
func Init(ctx context.Context, config *Config, opts ...Option) error {
	if err := config.Validate(); err != nil {
		return err
	}

	options := ParseOptions(opts...)
	logger, err := internal.NewLogger(config.toInternal(), options.Namespace)
	if err != nil {
		return err
	}
	defaultLoggerOnce.Do(func() {})
	defaultLogger.Store(logger)
	return nil
}

// Namespace 创建带有层次化命名空间的 Logger 实例
//
// 示例：
//
//	allocLogger := clog.Namespace("lease")
//	sweepLogger := allocLogger.Namespace("reclaimer") // "lease.reclaimer"
func Namespace(name string) Logger {
	return getDefaultLogger().Namespace(name)
}

// Debug 记录 Debug 级别的日志
func Debug(msg string, fields ...Field) {
	getDefaultLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

// Info 记录 Info 级别的日志
func Info(msg string, fields ...Field) {
	getDefaultLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

// Warn 记录 Warn 级别的日志
func Warn(msg string, fields ...Field) {
	getDefaultLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

// Error 记录 Error 级别的日志
func Error(msg string, fields ...Field) {
	getDefaultLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Fatal 记录 Fatal 级别的日志并退出程序
func Fatal(msg string, fields ...Field) {
	getDefaultLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

package internal

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ExitFunc allows mocking os.Exit in tests
var ExitFunc = os.Exit

// SetExitFunc sets the exit function for testing
func SetExitFunc(fn func(int)) {
	ExitFunc = fn
}

// Logger 定义日志接口
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)

	With(fields ...zap.Field) Logger
	WithOptions(opts ...zap.Option) Logger
	Namespace(name string) Logger
}

// Config 是 internal 层的日志配置，由 clog.Config 转换而来，避免循环依赖
type Config struct {
	Level       string
	Format      string
	Output      string
	AddSource   bool
	EnableColor bool
	RootPath    string
	Rotation    *RotationConfig
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// namespaceKey 是命名空间字段名
const namespaceKey = "namespace"

// zapLogger 封装 zap.Logger
type zapLogger struct {
	*zap.Logger
	namespace string
}

// exitHook 在 Fatal 日志写出后调用 ExitFunc，便于测试替换退出行为
type exitHook struct{}

func (exitHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {
	ExitFunc(1)
}

// NewLogger 根据配置创建 logger
func NewLogger(cfg Config, namespace string) (Logger, error) {
	ws, err := buildWriteSyncer(cfg.Output, cfg.Rotation)
	if err != nil {
		return nil, err
	}

	encoder := createEncoder(cfg.Format, buildEncoderConfig(cfg.Format, cfg.EnableColor, cfg.RootPath, cfg.AddSource))
	core := zapcore.NewCore(encoder, ws, parseLevel(cfg.Level))

	opts := []zap.Option{
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.WithFatalHook(exitHook{}),
	}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}

	return &zapLogger{
		Logger:    zap.New(core, opts...),
		namespace: namespace,
	}, nil
}

// NewFallbackLogger 创建备用 logger
func NewFallbackLogger() Logger {
	logger, err := zap.NewProduction(zap.WithFatalHook(exitHook{}))
	if err != nil {
		logger = zap.NewNop()
	}
	return &zapLogger{Logger: logger}
}

// withNamespace 把命名空间字段放在第一个位置
func (l *zapLogger) withNamespace(fields []zap.Field) []zap.Field {
	if l.namespace == "" {
		return fields
	}
	all := make([]zap.Field, len(fields)+1)
	all[0] = zap.String(namespaceKey, l.namespace)
	copy(all[1:], fields)
	return all
}

// caller 跳过 zapLogger 自身这一层
func (l *zapLogger) caller() *zap.Logger {
	return l.Logger.WithOptions(zap.AddCallerSkip(1))
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) {
	l.caller().Debug(msg, l.withNamespace(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...zap.Field) {
	l.caller().Info(msg, l.withNamespace(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...zap.Field) {
	l.caller().Warn(msg, l.withNamespace(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...zap.Field) {
	l.caller().Error(msg, l.withNamespace(fields)...)
}

// Fatal 记录日志后由 exitHook 调用 ExitFunc
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) {
	l.caller().Fatal(msg, l.withNamespace(fields)...)
}

// With 添加字段，namespace 字段由 Namespace 管理，这里会被过滤
func (l *zapLogger) With(fields ...zap.Field) Logger {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if field.Key != namespaceKey {
			filtered = append(filtered, field)
		}
	}
	return &zapLogger{
		Logger:    l.Logger.With(filtered...),
		namespace: l.namespace,
	}
}

// WithOptions 添加 zap 选项
func (l *zapLogger) WithOptions(opts ...zap.Option) Logger {
	return &zapLogger{
		Logger:    l.Logger.WithOptions(opts...),
		namespace: l.namespace,
	}
}

// Namespace 创建子命名空间，形如 "parent.child"
func (l *zapLogger) Namespace(name string) Logger {
	full := name
	if l.namespace != "" {
		full = l.namespace + "." + name
	}
	return &zapLogger{
		Logger:    l.Logger,
		namespace: full,
	}
}

// parseLevel 解析日志级别
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

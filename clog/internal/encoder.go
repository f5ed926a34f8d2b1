package internal

import (
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02 15:04:05.000"

// buildEncoderConfig 根据格式创建编码器配置
func buildEncoderConfig(format string, enableColor bool, rootPath string, addSource bool) zapcore.EncoderConfig {
	config := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		CallerKey:      zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	if addSource {
		config.CallerKey = "caller"
		config.EncodeCaller = callerEncoder(rootPath)
	}

	if format == "console" {
		config.EncodeLevel = zapcore.CapitalLevelEncoder
		if enableColor {
			config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}

	return config
}

// callerEncoder 以 rootPath 之后的相对路径输出调用位置
// rootPath 为空或不在路径中时退化为 zap 的短路径格式
func callerEncoder(rootPath string) zapcore.CallerEncoder {
	return func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		if !caller.Defined {
			enc.AppendString("undefined")
			return
		}
		if rootPath == "" {
			zapcore.ShortCallerEncoder(caller, enc)
			return
		}

		idx := strings.Index(caller.File, rootPath)
		if idx == -1 {
			zapcore.ShortCallerEncoder(caller, enc)
			return
		}

		rel := strings.TrimPrefix(caller.File[idx+len(rootPath):], "/")
		enc.AppendString(rel + ":" + strconv.Itoa(caller.Line))
	}
}

// createEncoder 根据格式创建编码器
func createEncoder(format string, config zapcore.EncoderConfig) zapcore.Encoder {
	if format == "console" {
		return zapcore.NewConsoleEncoder(config)
	}
	return zapcore.NewJSONEncoder(config)
}

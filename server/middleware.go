package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/unrolled/render"

	"github.com/ceyewan/idlease/api"
	"github.com/ceyewan/idlease/clog"
)

// TraceMiddleware 链路追踪中间件
// 优先使用请求头中的 trace id，没有则生成一个新的
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(api.HeaderTraceID)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			ctx := clog.WithTraceID(r.Context(), traceID)
			w.Header().Set(api.HeaderTraceID, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware 访问日志中间件
func LoggingMiddleware(logger clog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []clog.Field{
				clog.String("trace_id", clog.TraceID(r.Context())),
				clog.String("method", r.Method),
				clog.String("path", r.URL.Path),
				clog.Int("status", wrapped.status),
				clog.Duration("duration", time.Since(start)),
				clog.String("remote_addr", r.RemoteAddr),
			}
			if wrapped.status >= http.StatusInternalServerError {
				logger.Error("request finished", fields...)
				return
			}
			logger.Debug("request finished", fields...)
		})
	}
}

// RecoveryMiddleware 捕获 handler 中的 panic，返回 500
func RecoveryMiddleware(logger clog.Logger, formatter *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in handler",
						clog.String("trace_id", clog.TraceID(r.Context())),
						clog.String("path", r.URL.Path),
						clog.Any("panic", rec),
						clog.String("stack", string(debug.Stack())))
					formatter.JSON(w, http.StatusInternalServerError, api.NewErrorBody(api.CodeInternal))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter 包装 http.ResponseWriter 来捕获状态码
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

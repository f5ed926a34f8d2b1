package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/unrolled/render"

	"github.com/ceyewan/idlease/api"
	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
)

// Server 通过 HTTP 暴露租约分配器
type Server struct {
	config    *Config
	alloc     allocator.Allocator
	logger    clog.Logger
	formatter *render.Render
	metrics   http.Handler
	router    *mux.Router
}

// Option 函数式选项
type Option func(*Server)

// WithLogger 注入日志依赖
func WithLogger(logger clog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler 在 /metrics 上挂载指标 handler
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New 创建 HTTP 服务
func New(config *Config, alloc allocator.Allocator, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if alloc == nil {
		return nil, fmt.Errorf("allocator cannot be nil")
	}

	s := &Server{
		config:    config,
		alloc:     alloc,
		logger:    clog.Namespace("http"),
		formatter: render.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.newRouter()
	return s, nil
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(TraceMiddleware())
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger, s.formatter))

	r.HandleFunc(api.RouteNext, s.handleNext).Methods(http.MethodGet)
	r.HandleFunc(api.RouteHeartbeat, s.handleHeartbeat).Methods(http.MethodGet)
	r.HandleFunc(api.RouteHealth, s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle(api.RouteMetrics, s.metrics).Methods(http.MethodGet)
	}
	return r
}

// Handler 返回完整的路由
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe 监听配置的端口并提供服务，ctx 取消后优雅退出
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定的 listener 上提供服务，直到 ctx 取消或出错
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", clog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.config.ShutdownTimeout)
		defer cancel()
	}

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

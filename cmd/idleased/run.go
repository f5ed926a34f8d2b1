package main

import (
	"context"
	"fmt"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease"
	"github.com/ceyewan/idlease/metrics"
	"github.com/ceyewan/idlease/metrics/prometheus"
	"github.com/ceyewan/idlease/server"
)

// run 启动分配器和 HTTP 服务，直到 ctx 取消
func run(ctx context.Context, config *Config) error {
	logCfg, err := config.logConfig()
	if err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := clog.Init(ctx, logCfg, clog.WithNamespace("idleased")); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := clog.Namespace("main")

	leaseCfg := config.leaseConfig()
	var (
		monitor    metrics.MonitoringService = metrics.NoopMonitoringService{}
		serverOpts                           = []server.Option{server.WithLogger(clog.Namespace("http"))}
	)
	if config.MetricsEnabled {
		prom := prometheus.NewMonitoringService("idlease")
		if err := prom.Init(leaseCfg.Max - leaseCfg.Min + 1); err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		monitor = prom
		serverOpts = append(serverOpts, server.WithMetricsHandler(prom.Handler()))
	}

	provider, err := lease.New(ctx, leaseCfg,
		lease.WithLogger(clog.Namespace("lease")),
		lease.WithMonitoringService(monitor))
	if err != nil {
		return err
	}
	defer provider.Close()

	srv, err := server.New(config.serverConfig(), provider, serverOpts...)
	if err != nil {
		return err
	}

	logger.Info("idleased starting",
		clog.String("version", Version),
		clog.Int("port", config.Port),
		clog.Int("min", leaseCfg.Min),
		clog.Int("max", leaseCfg.Max),
		clog.Duration("timeout", leaseCfg.Timeout),
		clog.Duration("sweep_interval", leaseCfg.EffectiveSweepInterval()))

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("idleased stopped")
	return nil
}

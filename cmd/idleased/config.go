package main

import (
	"fmt"
	"math"
	"time"

	"github.com/urfave/cli"

	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease"
	"github.com/ceyewan/idlease/server"
)

// Config 进程启动参数，启动时读取一次
type Config struct {
	Env       string
	LogConfig string
	LogLevel  string

	Port            int
	Min             int
	Max             int
	TimeoutMS       int
	SweepIntervalMS int
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

// maxMillis 换算成 time.Duration 不溢出的最大毫秒数
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// NewConfig 返回默认值，flag 解析会覆盖它们
func NewConfig() *Config {
	return &Config{
		Env:             "production",
		Port:            3000,
		Min:             1,
		Max:             65535,
		TimeoutMS:       2000,
		ShutdownTimeout: 10 * time.Second,
		MetricsEnabled:  true,
	}
}

func getRunFlags(config *Config) []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:        "port",
			Usage:       "listen port",
			EnvVar:      "PORT",
			Value:       config.Port,
			Destination: &config.Port,
		},
		cli.IntFlag{
			Name:        "min",
			Usage:       "lowest id handed out (inclusive)",
			EnvVar:      "MIN",
			Value:       config.Min,
			Destination: &config.Min,
		},
		cli.IntFlag{
			Name:        "max",
			Usage:       "highest id handed out (inclusive)",
			EnvVar:      "MAX",
			Value:       config.Max,
			Destination: &config.Max,
		},
		cli.IntFlag{
			Name:        "timeout",
			Usage:       "lease duration in milliseconds",
			EnvVar:      "TIMEOUT",
			Value:       config.TimeoutMS,
			Destination: &config.TimeoutMS,
		},
		cli.IntFlag{
			Name:        "sweep-interval",
			Usage:       "reclaimer period in milliseconds, 0 means timeout/4",
			EnvVar:      "SWEEP_INTERVAL",
			Value:       config.SweepIntervalMS,
			Destination: &config.SweepIntervalMS,
		},
		cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "grace period for in-flight requests on shutdown",
			EnvVar:      "SHUTDOWN_TIMEOUT",
			Value:       config.ShutdownTimeout,
			Destination: &config.ShutdownTimeout,
		},
		cli.BoolTFlag{
			Name:        "metrics",
			Usage:       "serve prometheus metrics on /metrics",
			EnvVar:      "METRICS",
			Destination: &config.MetricsEnabled,
		},
		cli.StringFlag{
			Name:        "env",
			Usage:       "development or production, selects logging defaults",
			EnvVar:      "APP_ENV",
			Value:       config.Env,
			Destination: &config.Env,
		},
		cli.StringFlag{
			Name:        "log-config",
			Usage:       "path to a YAML logging config",
			EnvVar:      "LOG_CONFIG",
			Destination: &config.LogConfig,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "overrides the configured log level",
			EnvVar:      "LOG_LEVEL",
			Destination: &config.LogLevel,
		},
	}
}

// Validate 在分配任何资源之前检查参数
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 0-65535, got %d", c.Port)
	}
	if c.Min > c.Max {
		return fmt.Errorf("MIN (%d) must not be greater than MAX (%d)", c.Min, c.Max)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("TIMEOUT must be a positive number of milliseconds, got %d", c.TimeoutMS)
	}
	if int64(c.TimeoutMS) > maxMillis {
		return fmt.Errorf("TIMEOUT must not exceed %d milliseconds, got %d", maxMillis, c.TimeoutMS)
	}
	if c.SweepIntervalMS < 0 {
		return fmt.Errorf("SWEEP_INTERVAL cannot be negative, got %d", c.SweepIntervalMS)
	}
	if int64(c.SweepIntervalMS) > maxMillis {
		return fmt.Errorf("SWEEP_INTERVAL must not exceed %d milliseconds, got %d", maxMillis, c.SweepIntervalMS)
	}
	return c.leaseConfig().Validate()
}

func (c *Config) leaseConfig() *lease.Config {
	return &lease.Config{
		Min:           c.Min,
		Max:           c.Max,
		Timeout:       time.Duration(c.TimeoutMS) * time.Millisecond,
		SweepInterval: time.Duration(c.SweepIntervalMS) * time.Millisecond,
	}
}

func (c *Config) serverConfig() *server.Config {
	cfg := server.DefaultConfig()
	cfg.Port = c.Port
	cfg.ShutdownTimeout = c.ShutdownTimeout
	return cfg
}

func (c *Config) logConfig() (*clog.Config, error) {
	cfg := clog.GetDefaultConfig(c.Env)
	if c.LogConfig != "" {
		loaded, err := clog.LoadConfig(c.LogConfig, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.LogLevel != "" {
		cfg.Level = c.LogLevel
	}
	return cfg, cfg.Validate()
}

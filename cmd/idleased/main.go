package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/ceyewan/idlease/clog"
)

// version mgmt, set via -ldflags
var (
	Version   = "dev"
	Buildtime = "unknown"
)

func main() {
	config := NewConfig()
	app := newApp(config, func(config *Config) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, config)
	})

	if err := app.Run(os.Args); err != nil {
		clog.Fatal("idleased failed", clog.Err(err))
	}
}

func newApp(config *Config, start func(*Config) error) *cli.App {
	action := func(c *cli.Context) error {
		if err := config.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return start(config)
	}

	app := cli.NewApp()
	app.Name = "idleased"
	app.Usage = "hands out leased integer ids over HTTP"
	app.Version = Version
	// 参数只挂在 run 上，不带子命令时转交给 run 解析
	app.Action = func(c *cli.Context) error {
		return c.App.Command("run").Run(c)
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "runs the lease server (default)",
			Flags:  getRunFlags(config),
			Action: action,
		},
		{
			Name:  "version",
			Usage: "prints version and build time of this binary",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "Version: %s\n", Version)
				fmt.Fprintf(c.App.Writer, "BuildTime: %s\n", Buildtime)
				return nil
			},
		},
	}
	return app
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idlease/api"
)

// parse 用给定参数运行 app，返回 action 收到的配置
func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var got *Config
	config := NewConfig()
	app := newApp(config, func(c *Config) error {
		got = c
		return nil
	})
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"idleased"}, args...))
	return got, err
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "MIN", "MAX", "TIMEOUT", "SWEEP_INTERVAL", "SHUTDOWN_TIMEOUT", "METRICS", "APP_ENV", "LOG_CONFIG", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := parse(t)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 1, cfg.Min)
	assert.Equal(t, 65535, cfg.Max)
	assert.Equal(t, 2000, cfg.TimeoutMS)
	assert.True(t, cfg.MetricsEnabled)

	lc := cfg.leaseConfig()
	assert.Equal(t, 2*time.Second, lc.Timeout)
	assert.Equal(t, 500*time.Millisecond, lc.EffectiveSweepInterval())
}

func TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "4000")
	t.Setenv("MIN", "10")
	t.Setenv("MAX", "20")
	t.Setenv("TIMEOUT", "1500")
	t.Setenv("METRICS", "false")

	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 10, cfg.Min)
	assert.Equal(t, 20, cfg.Max)
	assert.Equal(t, 1500*time.Millisecond, cfg.leaseConfig().Timeout)
	assert.False(t, cfg.MetricsEnabled)
}

func TestFlagsOnRunCommand(t *testing.T) {
	clearEnv(t)
	cfg, err := parse(t, "run", "--min", "5", "--max", "6", "--timeout", "100")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Min)
	assert.Equal(t, 6, cfg.Max)
	assert.Equal(t, 100, cfg.TimeoutMS)
}

func TestFlagsBeforeRunCommand(t *testing.T) {
	clearEnv(t)
	// 子命令之前的参数要么生效，要么报错，不能被默认值悄悄覆盖
	cfg, err := parse(t, "--min", "5", "--max", "6", "run")
	require.Error(t, err)
	assert.Nil(t, cfg, "the server must not start with a dropped range")
}

func TestEnvironmentWithRunCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN", "7")
	t.Setenv("MAX", "8")

	cfg, err := parse(t, "run")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Min)
	assert.Equal(t, 8, cfg.Max)
}

func TestInvalidConfiguration(t *testing.T) {
	cases := map[string]map[string]string{
		"min greater than max": {"MIN": "10", "MAX": "9"},
		"non numeric min":      {"MIN": "one"},
		"non numeric timeout":  {"TIMEOUT": "2s"},
		"zero timeout":         {"TIMEOUT": "0"},
		"port out of range":    {"PORT": "70000"},
		"timeout overflows":    {"TIMEOUT": "9223372036854775807"},
		"sweep overflows":      {"SWEEP_INTERVAL": "9223372036854775807"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			cfg, err := parse(t)
			require.Error(t, err)
			assert.Nil(t, cfg, "the server must not start")
		})
	}
}

func TestVersionCommand(t *testing.T) {
	clearEnv(t)
	config := NewConfig()
	app := newApp(config, func(*Config) error {
		t.Fatal("version must not start the server")
		return nil
	})
	out := &bytes.Buffer{}
	app.Writer = out
	require.NoError(t, app.Run([]string{"idleased", "version"}))
	assert.Contains(t, out.String(), "Version: "+Version)
}

func TestLogConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.yaml")
	require.NoError(t, os.WriteFile(path, []byte("level: warn\nformat: json\noutput: stderr\n"), 0o644))

	cfg := NewConfig()
	cfg.LogConfig = path
	lc, err := cfg.logConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", lc.Level)

	cfg.LogLevel = "debug"
	lc, err = cfg.logConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", lc.Level)

	cfg.LogConfig = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.logConfig()
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRun(t *testing.T) {
	cfg := NewConfig()
	cfg.Env = "development"
	cfg.Port = freePort(t)
	cfg.Min, cfg.Max = 1, 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	base := "http://127.0.0.1:" + strconv.Itoa(cfg.Port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(base + api.RouteNext)
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l api.Lease
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, 1, l.ID)

	hb, err := http.Get(base + api.HeartbeatPath(l.ID))
	require.NoError(t, err)
	hb.Body.Close()
	assert.Equal(t, http.StatusOK, hb.StatusCode)

	m, err := http.Get(base + api.RouteMetrics)
	require.NoError(t, err)
	m.Body.Close()
	assert.Equal(t, http.StatusOK, m.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

package clog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoreFeatures covers config defaults, levels, fields, namespace, trace id, caller and file output
func TestCoreFeatures(t *testing.T) {
	t.Cleanup(func() {
		_ = Init(context.Background(), GetDefaultConfig("development"))
	})

	t.Run("Environment Defaults", testEnvDefaults)
	t.Run("Validate", testValidate)
	t.Run("Log Levels", testLogLevels)
	t.Run("All Fields", testAllFields)
	t.Run("Hierarchical Namespace", testNamespace)
	t.Run("Context TraceID", testTraceID)
	t.Run("Caller Info", testCaller)
	t.Run("Fatal Exit", testFatal)
	t.Run("File Output", testFileOutput)
	t.Run("YAML Config", testLoadConfig)
}

// captureJSON redirects stdout while fn runs and decodes every JSON line written
func captureJSON(t *testing.T, fn func()) []map[string]interface{} {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	var logs []map[string]interface{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry), "invalid JSON line: %s", line)
		logs = append(logs, entry)
	}
	return logs
}

func testEnvDefaults(t *testing.T) {
	dev := GetDefaultConfig("development")
	assert.Equal(t, "debug", dev.Level)
	assert.Equal(t, "console", dev.Format)
	assert.True(t, dev.EnableColor)

	prod := GetDefaultConfig("production")
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "json", prod.Format)
	assert.False(t, prod.EnableColor)
}

func testValidate(t *testing.T) {
	require.NoError(t, GetDefaultConfig("production").Validate())

	bad := GetDefaultConfig("production")
	bad.Level = "verbose"
	assert.ErrorContains(t, bad.Validate(), "invalid log level")

	bad = GetDefaultConfig("production")
	bad.Format = "xml"
	assert.ErrorContains(t, bad.Validate(), "invalid log format")

	bad = GetDefaultConfig("production")
	bad.Output = ""
	assert.ErrorContains(t, bad.Validate(), "output cannot be empty")

	bad = GetDefaultConfig("production")
	bad.Rotation = &RotationConfig{MaxSize: -1}
	assert.ErrorContains(t, bad.Validate(), "maxSize")
}

func testLogLevels(t *testing.T) {
	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "info", Format: "json", Output: "stdout"}))
		Debug("debug msg")
		Info("info msg", String("k", "v"))
		Warn("warn msg")
		Error("error msg")
	})

	var msgs []string
	for _, l := range logs {
		msgs = append(msgs, l["msg"].(string))
	}
	assert.Equal(t, []string{"info msg", "warn msg", "error msg"}, msgs)
	assert.Equal(t, "v", logs[0]["k"])
	assert.Equal(t, "error", logs[2]["level"])
}

func testAllFields(t *testing.T) {
	err := errors.New("test err")
	now := time.Now()
	dur := 5 * time.Second

	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "debug", Format: "json", Output: "stdout"}))
		Info("fields test",
			String("string", "hello"),
			Int("int", 42),
			Bool("bool", true),
			Float64("float64", 3.14),
			Duration("duration", dur),
			Time("time", now),
			Err(err),
			LeaseID(7),
			Any("any", map[string]int{"k": 1}),
		)
	})
	require.Len(t, logs, 1)
	entry := logs[0]

	assert.Equal(t, "hello", entry["string"])
	assert.Equal(t, float64(42), entry["int"])
	assert.Equal(t, true, entry["bool"])
	assert.Equal(t, 3.14, entry["float64"])
	assert.Equal(t, dur.String(), entry["duration"])
	assert.Equal(t, "test err", entry["error"])
	assert.Equal(t, float64(7), entry["lease_id"])
	assert.Equal(t, map[string]interface{}{"k": float64(1)}, entry["any"])
}

func testNamespace(t *testing.T) {
	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "info", Format: "json", Output: "stdout"}, WithNamespace("root")))
		Namespace("a").Namespace("b").Namespace("c").Info("namespace test")
		Namespace("a").With(String("namespace", "ignored")).Info("with test")
	})
	require.Len(t, logs, 2)
	assert.Equal(t, "root.a.b.c", logs[0]["namespace"])
	assert.Equal(t, "root.a", logs[1]["namespace"])
}

func testTraceID(t *testing.T) {
	traceID := "test-trace-123"
	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "info", Format: "json", Output: "stdout"}))
		ctx := WithTraceID(context.Background(), traceID)
		WithContext(ctx).Info("traceid test")
		C(ctx).Namespace("test").Info("alias test")
		WithContext(context.Background()).Info("no trace")
		WithTrace(ctx, Namespace("injected")).Info("injected logger")
	})
	require.Len(t, logs, 4)
	assert.Equal(t, traceID, logs[0]["trace_id"])
	assert.Equal(t, traceID, logs[1]["trace_id"])
	assert.NotContains(t, logs[2], "trace_id")
	assert.Equal(t, traceID, logs[3]["trace_id"])
	assert.Equal(t, "injected", logs[3]["namespace"])
	assert.Equal(t, traceID, TraceID(WithTraceID(context.Background(), traceID)))
}

func testCaller(t *testing.T) {
	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "info", Format: "json", Output: "stdout", AddSource: true}))
		Info("caller test")
	})
	require.Len(t, logs, 1)
	caller, ok := logs[0]["caller"].(string)
	require.True(t, ok, "missing caller: %+v", logs[0])
	assert.Contains(t, caller, "clog_test.go")
}

func testFatal(t *testing.T) {
	exitCode := -1
	SetExitFunc(func(code int) { exitCode = code })
	defer SetExitFunc(os.Exit)

	logs := captureJSON(t, func() {
		require.NoError(t, Init(context.Background(), &Config{Level: "info", Format: "json", Output: "stdout"}))
		Fatal("fatal msg")
	})
	require.Len(t, logs, 1)
	assert.Equal(t, "fatal", logs[0]["level"])
	assert.Equal(t, 1, exitCode)
}

func testFileOutput(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "app.log")

	logger, err := New(context.Background(), &Config{
		Level:  "info",
		Format: "json",
		Output: logFile,
		Rotation: &RotationConfig{
			MaxSize:    1,
			MaxBackups: 2,
			MaxAge:     1,
		},
	}, WithNamespace("file"))
	require.NoError(t, err)

	logger.Info("rotation log", Int("n", 1))

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"rotation log"`)
	assert.Contains(t, string(content), `"namespace":"file"`)
}

func testLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.yaml")
	yamlContent := `
level: warn
format: json
output: stderr
rotation:
  maxSize: 10
  maxBackups: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(path, GetDefaultConfig("development"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, "idlease", cfg.RootPath)
	require.NotNil(t, cfg.Rotation)
	assert.Equal(t, 10, cfg.Rotation.MaxSize)

	require.NoError(t, os.WriteFile(path, []byte("level: loud\n"), 0644))
	_, err = LoadConfig(path, nil)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

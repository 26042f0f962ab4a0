package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/logging"
)

const demoFlow = `
flow {
  outputs = ["z"]
  workers = 2
}

vertex "a" {
  op = "const"
  args { value = 7 }
  emit { data = "x" }
}

vertex "b" {
  op = "const"
  args { value = 9 }
  emit { data = "y" }
}

vertex "gate" {
  op = "const"
  args { value = true }
  emit { data = "flag" }
}

vertex "sum" {
  op = "arith"

  depend {
    data      = "x"
    condition = "flag"
  }

  depend {
    data      = "y"
    condition = "flag"
  }

  emit { data = "z" }
}
`

func writeFlow(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestAppEndToEnd(t *testing.T) {
	var out bytes.Buffer
	cfg, err := NewConfig(Config{
		FlowPath:  writeFlow(t, demoFlow),
		LogLevel:  "error",
		LogFormat: "text",
	})
	require.NoError(t, err)

	flowApp, err := NewApp(&out, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, flowApp.Run(ctx, cfg))
	assert.Contains(t, out.String(), "z = 16")
}

func TestAppOutputOverride(t *testing.T) {
	var out bytes.Buffer
	cfg, err := NewConfig(Config{
		FlowPath:  writeFlow(t, demoFlow),
		Outputs:   []string{"x"},
		LogLevel:  "error",
		LogFormat: "text",
	})
	require.NoError(t, err)

	flowApp, err := NewApp(&out, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, flowApp.Run(ctx, cfg))
	assert.Contains(t, out.String(), "x = 7")
	assert.NotContains(t, out.String(), "z =")
}

func TestAppBadFlowPath(t *testing.T) {
	cfg, err := NewConfig(Config{FlowPath: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	_, err = NewApp(&bytes.Buffer{}, cfg)
	assert.Error(t, err)
}

func TestNewConfigRequiresFlowPath(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)
}

func TestLoggerLevelMapping(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))

	assert.Equal(t, logging.SeverityDebug, coreSeverity(slog.LevelDebug))
	assert.Equal(t, logging.SeverityInfo, coreSeverity(slog.LevelInfo))
	assert.Equal(t, logging.SeverityWarning, coreSeverity(slog.LevelWarn))
	assert.Equal(t, logging.SeverityFatal, coreSeverity(slog.LevelError))

	defer logging.SetMinSeverity(logging.SeverityInfo)
	var out bytes.Buffer
	newLogger("warn", "text", &out)
	assert.Equal(t, logging.SeverityWarning, logging.MinSeverity(),
		"the core sidecar threshold must follow the app level")
}

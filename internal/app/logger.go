package app

import (
	"io"
	"log/slog"

	"github.com/vk/flowgridgo/internal/logging"
)

// newLogger creates the app's slog.Logger and aligns the flow core's
// logging sidecar with the same threshold, so edge diagnostics follow the
// CLI flags. The returned logger itself stays an isolated instance; only
// the sidecar threshold is process-wide.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := parseLevel(levelStr)

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, handlerOpts)
	default:
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	logging.SetMinSeverity(coreSeverity(level))
	return slog.New(handler)
}

// parseLevel maps a CLI level string to its slog level, defaulting to info.
func parseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// coreSeverity maps an slog level onto the core sidecar's severity scale.
func coreSeverity(level slog.Level) logging.Severity {
	switch {
	case level <= slog.LevelDebug:
		return logging.SeverityDebug
	case level <= slog.LevelInfo:
		return logging.SeverityInfo
	case level <= slog.LevelWarn:
		return logging.SeverityWarning
	default:
		return logging.SeverityFatal
	}
}

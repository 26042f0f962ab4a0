// Package logging is the process-wide logging sidecar for the flow core.
//
// The core cannot thread a context-carried logger through its lock-free
// paths, so it logs through a pluggable provider singleton instead: a
// default stderr provider is installed lazily, and an embedding application
// may install a replacement once at startup. Installation is not safe to
// perform concurrently with logging from other goroutines.
package logging

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Severity is the coarse level a log site is tagged with.
type Severity int32

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityFatal

	severityNum
)

// String returns the conventional upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// Provider hands out the logger backing a given severity. Implementations
// may route severities to different sinks or annotate the returned logger.
type Provider interface {
	Logger(severity Severity) *slog.Logger
}

var (
	minSeverity atomic.Int32
	provider    atomic.Pointer[Provider]
	discard     = slog.New(slog.DiscardHandler)
)

func init() {
	minSeverity.Store(int32(SeverityInfo))
}

// stderrProvider is the lazily installed default: a text handler on stderr
// with the severity attached as an attribute.
type stderrProvider struct {
	logger *slog.Logger
}

func newStderrProvider() *stderrProvider {
	return &stderrProvider{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})),
	}
}

func (p *stderrProvider) Logger(severity Severity) *slog.Logger {
	return p.logger.With("severity", severity.String())
}

// SetMinSeverity sets the lowest severity that produces output.
func SetMinSeverity(severity Severity) {
	minSeverity.Store(int32(severity))
}

// MinSeverity returns the current output threshold.
func MinSeverity() Severity {
	return Severity(minSeverity.Load())
}

// SetProvider installs a replacement provider. Call it once at program
// start, before anything logs.
func SetProvider(p Provider) {
	provider.Store(&p)
}

// Log returns the logger for severity, or a discarding logger when the
// severity is below the threshold.
func Log(severity Severity) *slog.Logger {
	if severity < MinSeverity() {
		return discard
	}
	p := provider.Load()
	if p == nil {
		def := Provider(newStderrProvider())
		// Lazy default install. A concurrent first log may allocate a second
		// default; both write to stderr, so losing the race is harmless.
		provider.CompareAndSwap(nil, &def)
		p = provider.Load()
	}
	return (*p).Logger(severity)
}

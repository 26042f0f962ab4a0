// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/flowgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flowgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FlowGridGo - A conditional dataflow graph executor.

Usage:
  flowgridgo [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a single .hcl flow file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the flow file or directory.")
	fFlag := flagSet.String("f", "", "Path to the flow file or directory (shorthand).")
	outputsFlag := flagSet.String("outputs", "", "Comma-separated data cells to request; overrides the flow block.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the HTTP metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers for the executor. 0 uses the flow's setting.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flowPath := *flowFlag
	if flowPath == "" {
		flowPath = *fFlag
	}
	if flowPath == "" && flagSet.NArg() > 0 {
		flowPath = flagSet.Arg(0)
	}
	if flowPath == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "a flow path is required"}
	}

	var outputs []string
	if *outputsFlag != "" {
		for _, name := range strings.Split(*outputsFlag, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
	}

	cfg, err := app.NewConfig(app.Config{
		FlowPath:    flowPath,
		Outputs:     outputs,
		LogFormat:   *logFormatFlag,
		LogLevel:    *logLevelFlag,
		MetricsPort: *metricsPortFlag,
		WorkerCount: *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}

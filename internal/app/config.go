package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// FlowPath points at a single .hcl file or a directory of them.
	FlowPath string
	// Outputs overrides the flow block's requested outputs when non-empty.
	Outputs []string

	LogFormat   string
	LogLevel    string
	MetricsPort int
	WorkerCount int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/metrics"
)

// Run executes the loaded flow based on the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	stats := metrics.NewExecutorStats()
	if cfg.MetricsPort > 0 {
		a.startMetricsServer(cfg.MetricsPort, stats)
	}

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = a.runSpec.Outputs
	}
	if len(outputs) == 0 {
		return fmt.Errorf("no outputs requested: pass --outputs or add an outputs list to the flow block")
	}

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = a.runSpec.Workers
	}

	logger.Info("🚀 Starting flow execution...", "outputs", outputs, "workers", workers)
	opts := flow.RunOptions{Workers: workers, Stats: stats}
	if err := a.graph.Run(ctx, opts, outputs...); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	logger.Info("🏁 Execution finished.", "vertexes_run", stats.Completed.Value())

	for _, name := range outputs {
		data := a.graph.Data(name)
		if data.Empty() {
			fmt.Fprintf(a.outW, "%s = (empty)\n", name)
			continue
		}
		fmt.Fprintf(a.outW, "%s = %v\n", name, dataDisplayValue(data))
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// dataDisplayValue renders an output cell for the final report.
func dataDisplayValue(d *flow.Data) any {
	if v := flow.DataValue[int64](d); v != nil {
		return *v
	}
	if v := flow.DataValue[float64](d); v != nil {
		return *v
	}
	if v := flow.DataValue[bool](d); v != nil {
		return *v
	}
	if v := flow.DataValue[string](d); v != nil {
		return *v
	}
	return "(opaque)"
}

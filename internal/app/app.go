package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	graph    *flow.Graph
	runSpec  *hcl.RunSpec
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry, the
// flow definition loaded and the graph built.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All operator modules registered.", "count", len(modules), "operators", reg.Names())

	flowCfg, err := hcl.Load(cfg.FlowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow definition: %w", err)
	}
	logger.Debug("Flow definition loaded.", "vertex_count", len(flowCfg.Vertexes))

	graph, runSpec, err := hcl.Translate(ctx, flowCfg, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to build flow graph: %w", err)
	}
	logger.Debug("Flow graph built.", "vertex_count", len(graph.Vertexes()))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		graph:    graph,
		runSpec:  runSpec,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the built flow graph. This is primarily for testing.
func (a *App) Graph() *flow.Graph {
	return a.graph
}

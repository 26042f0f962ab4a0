// Package print provides the 'print' operator: it writes every dependency's
// resolved value to stdout, mainly for demo flows and debugging.
package print

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunPrint is the handler for the 'print' operator.
func OnRunPrint(ctx context.Context, inv *flow.Invocation) error {
	slog.Info("Printing dependencies", "vertex", inv.VertexName())

	deps := inv.Dependencies()
	if len(deps) == 0 {
		fmt.Println("      (no dependencies)")
		return nil
	}

	// Sort local names for consistent output.
	names := make([]string, 0, len(deps))
	for _, dep := range deps {
		names = append(names, dep.LocalName())
	}
	sort.Strings(names)

	for _, name := range names {
		dep := inv.Dependency(name)
		switch {
		case !dep.Ready():
			fmt.Printf("      %s = (skipped)\n", name)
		case dep.Empty():
			fmt.Printf("      %s = (empty)\n", name)
		default:
			fmt.Printf("      %s = %v\n", name, dep.AnyValue())
		}
	}
	return nil
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "print",
		Description: "Print resolved dependency values to stdout.",
		Handler:     OnRunPrint,
	})
}

// Package arith provides the 'arith' operator: an integer fold over every
// ready dependency. Skipped or unready edges contribute nothing.
package arith

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunArith is the handler for the 'arith' operator. The 'op' arg selects
// the fold: sum (default), max, min or mul.
func OnRunArith(ctx context.Context, inv *flow.Invocation) error {
	opName := "sum"
	if arg := inv.Arg("op"); arg != cty.NilVal && arg.Type() == cty.String {
		opName = arg.AsString()
	}

	var values []int64
	for _, dep := range inv.Dependencies() {
		if !dep.Ready() || dep.Empty() {
			continue
		}
		values = append(values, dep.AsInt64())
	}

	result, err := fold(opName, values)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", inv.VertexName(), err)
	}
	for _, name := range inv.EmitNames() {
		if err := flow.Emit(inv, name, result); err != nil {
			return err
		}
	}
	return nil
}

func fold(opName string, values []int64) (int64, error) {
	switch opName {
	case "sum":
		var total int64
		for _, v := range values {
			total += v
		}
		return total, nil
	case "mul":
		total := int64(1)
		for _, v := range values {
			total *= v
		}
		return total, nil
	case "max", "min":
		if len(values) == 0 {
			return 0, nil
		}
		best := values[0]
		for _, v := range values[1:] {
			if (opName == "max" && v > best) || (opName == "min" && v < best) {
				best = v
			}
		}
		return best, nil
	}
	return 0, fmt.Errorf("unknown arith op %q", opName)
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "arith",
		Description: "Fold integer dependencies with sum, max, min or mul.",
		Handler:     OnRunArith,
	})
}

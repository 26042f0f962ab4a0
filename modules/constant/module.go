// Package constant provides the 'const' operator: it emits the literal
// value from its args into every cell the vertex declares.
package constant

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunConst is the handler for the 'const' operator.
func OnRunConst(ctx context.Context, inv *flow.Invocation) error {
	value := inv.Arg("value")
	if value == cty.NilVal {
		return fmt.Errorf("vertex %q: const requires a 'value' arg", inv.VertexName())
	}
	native, err := nativeValue(value)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", inv.VertexName(), err)
	}
	for _, name := range inv.EmitNames() {
		if err := inv.EmitValue(name, native); err != nil {
			return err
		}
	}
	return nil
}

// nativeValue lowers a literal cty value to its Go representation. Whole
// numbers become int64, everything else numeric becomes float64.
func nativeValue(value cty.Value) (any, error) {
	switch value.Type() {
	case cty.Bool:
		return value.True(), nil
	case cty.String:
		return value.AsString(), nil
	case cty.Number:
		bf := value.AsBigFloat()
		if i, acc := bf.Int64(); acc == 0 {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, fmt.Errorf("unsupported const value type %s", value.Type().FriendlyName())
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "const",
		Description: "Emit a literal value.",
		Handler:     OnRunConst,
	})
}

// Package envflag provides the 'env_flag' operator: it reads an environment
// variable and emits its boolean truthiness, so flows can be gated on the
// launch environment.
package envflag

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunEnvFlag is the handler for the 'env_flag' operator. The 'name' arg
// selects the variable; 'default' supplies the value when it is unset.
func OnRunEnvFlag(ctx context.Context, inv *flow.Invocation) error {
	nameArg := inv.Arg("name")
	if nameArg == cty.NilVal || nameArg.Type() != cty.String {
		return fmt.Errorf("vertex %q: env_flag requires a string 'name' arg", inv.VertexName())
	}

	result := false
	if def := inv.Arg("default"); def != cty.NilVal && def.Type() == cty.Bool {
		result = def.True()
	}
	if raw, ok := os.LookupEnv(nameArg.AsString()); ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "yes", "on":
			result = true
		default:
			result = false
		}
	}

	for _, name := range inv.EmitNames() {
		if err := flow.Emit(inv, name, result); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "env_flag",
		Description: "Emit the boolean truthiness of an environment variable.",
		Handler:     OnRunEnvFlag,
	})
}

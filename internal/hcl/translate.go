package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/schema"
)

// RunSpec is the execution request carried by a flow file's flow block.
type RunSpec struct {
	Outputs []string
	Workers int
}

// Translate turns a decoded flow config into a built graph plus the run
// request. Every vertex is bound to its registered operator; arguments are
// evaluated to literal values here, once, at build time.
func Translate(ctx context.Context, cfg *schema.FlowConfig, reg *registry.Registry) (*flow.Graph, *RunSpec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Translating flow config.", "vertex_count", len(cfg.Vertexes))

	builder := flow.NewBuilder()
	for _, v := range cfg.Vertexes {
		op, ok := reg.Operator(v.Op)
		if !ok {
			return nil, nil, fmt.Errorf("vertex %q: unknown operator %q (have %v)",
				v.Name, v.Op, reg.Names())
		}

		vb := builder.Vertex(v.Name, op.Name, op.Handler)
		if v.Arguments != nil {
			args, err := decodeArgs(v.Arguments.Body)
			if err != nil {
				return nil, nil, fmt.Errorf("vertex %q: %w", v.Name, err)
			}
			vb.Args(args)
		}
		for _, dep := range v.Depends {
			db := vb.Depend(dep.Data)
			if dep.As != "" {
				db.As(dep.As)
			}
			if dep.Condition != "" {
				establish := true
				if dep.Establish != nil {
					establish = *dep.Establish
				}
				db.Condition(dep.Condition, establish)
			}
			if dep.Mutable {
				db.Mutable()
			}
			if dep.Essential != nil && !*dep.Essential {
				db.NonEssential()
			}
		}
		for _, emit := range v.Emits {
			vb.Emit(emit.Data)
		}
	}

	graph, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}

	spec := &RunSpec{}
	if cfg.Flow != nil {
		spec.Outputs = cfg.Flow.Outputs
		spec.Workers = cfg.Flow.Workers
	}
	logger.Debug("Flow config translated.", "outputs", spec.Outputs)
	return graph, spec, nil
}

// decodeArgs evaluates an args block into literal values. Expressions get
// no evaluation context: flow files move data through cells, not through
// templating.
func decodeArgs(body hcl.Body) (map[string]cty.Value, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading args: %w", diags)
	}
	args := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating arg %q: %w", name, diags)
		}
		args[name] = value
	}
	return args, nil
}

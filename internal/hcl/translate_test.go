package hcl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.RegisterOperator(&registry.Operator{
		Name: "const",
		Handler: func(ctx context.Context, inv *flow.Invocation) error {
			value := inv.Arg("value")
			for _, name := range inv.EmitNames() {
				if value.Type() == cty.Bool {
					if err := flow.Emit(inv, name, value.True()); err != nil {
						return err
					}
					continue
				}
				i, _ := value.AsBigFloat().Int64()
				if err := flow.Emit(inv, name, i); err != nil {
					return err
				}
			}
			return nil
		},
	})
	reg.RegisterOperator(&registry.Operator{
		Name: "sum",
		Handler: func(ctx context.Context, inv *flow.Invocation) error {
			var total int64
			for _, dep := range inv.Dependencies() {
				total += dep.AsInt64()
			}
			for _, name := range inv.EmitNames() {
				if err := flow.Emit(inv, name, total); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return reg
}

const gatedFlow = `
flow {
  outputs = ["z"]
  workers = 2
}

vertex "a" {
  op = "const"
  args { value = 7 }
  emit { data = "x" }
}

vertex "b" {
  op = "const"
  args { value = 9 }
  emit { data = "y" }
}

vertex "d" {
  op = "const"
  args { value = true }
  emit { data = "flag" }
}

vertex "c" {
  op = "sum"
  depend {
    data      = "x"
    condition = "flag"
  }
  depend {
    data      = "y"
    condition = "flag"
    establish = true
  }
  emit { data = "z" }
}
`

func TestTranslateAndRun(t *testing.T) {
	cfg, err := ParseConfig([]byte(gatedFlow), "gated.hcl")
	require.NoError(t, err)
	require.NotNil(t, cfg.Flow)
	assert.Equal(t, []string{"z"}, cfg.Flow.Outputs)
	assert.Equal(t, 2, cfg.Flow.Workers)
	require.Len(t, cfg.Vertexes, 4)

	graph, spec, err := Translate(context.Background(), cfg, testRegistry())
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, spec.Outputs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, graph.Run(ctx, flow.RunOptions{Workers: spec.Workers}, spec.Outputs...))
	assert.Equal(t, int64(16), *flow.DataValue[int64](graph.Data("z")))
}

func TestTranslateDependencyFlags(t *testing.T) {
	src := `
vertex "a" {
  op = "const"
  args { value = 1 }
  emit { data = "x" }
}

vertex "c" {
  op = "sum"
  depend {
    data      = "x"
    as        = "lhs"
    mutable   = true
    essential = false
  }
  emit { data = "z" }
}
`
	cfg, err := ParseConfig([]byte(src), "flags.hcl")
	require.NoError(t, err)

	graph, _, err := Translate(context.Background(), cfg, testRegistry())
	require.NoError(t, err)

	var c *flow.Vertex
	for _, v := range graph.Vertexes() {
		if v.Name() == "c" {
			c = v
		}
	}
	require.NotNil(t, c)
	dep := c.Dependency("lhs")
	require.NotNil(t, dep)
	assert.True(t, dep.IsMutable())
	assert.False(t, dep.IsEssential())
}

func TestTranslateUnknownOperator(t *testing.T) {
	src := `
vertex "a" {
  op = "bogus"
  emit { data = "x" }
}
`
	cfg, err := ParseConfig([]byte(src), "bogus.hcl")
	require.NoError(t, err)

	_, _, err = Translate(context.Background(), cfg, testRegistry())
	assert.ErrorContains(t, err, "unknown operator")
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`vertex "a" {`), "broken.hcl")
	assert.Error(t, err)
}

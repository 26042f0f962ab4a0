package arith

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/flow"
)

func TestFold(t *testing.T) {
	cases := []struct {
		op     string
		values []int64
		want   int64
	}{
		{"sum", []int64{3, 1, 8}, 12},
		{"sum", nil, 0},
		{"max", []int64{3, 1, 8, 2, 5}, 8},
		{"min", []int64{3, 1, 8}, 1},
		{"mul", []int64{3, 2, 4}, 24},
		{"max", nil, 0},
	}
	for _, tc := range cases {
		got, err := fold(tc.op, tc.values)
		require.NoError(t, err, tc.op)
		assert.Equal(t, tc.want, got, "%s over %v", tc.op, tc.values)
	}

	_, err := fold("avg", []int64{1})
	assert.ErrorContains(t, err, "unknown arith op")
}

func emitInt(value int64) flow.Handler {
	return func(ctx context.Context, inv *flow.Invocation) error {
		for _, name := range inv.EmitNames() {
			if err := flow.Emit(inv, name, value); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestOnRunArith(t *testing.T) {
	b := flow.NewBuilder()
	b.Vertex("a", "const", emitInt(7)).Emit("x")
	b.Vertex("b", "const", emitInt(9)).Emit("y")
	vc := b.Vertex("c", "arith", OnRunArith)
	vc.Args(map[string]cty.Value{"op": cty.StringVal("max")})
	vc.Depend("x")
	vc.Depend("y")
	vc.Emit("z")
	g, err := b.Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, g.Run(ctx, flow.RunOptions{Workers: 2}, "z"))
	assert.Equal(t, int64(9), *flow.DataValue[int64](g.Data("z")))
}

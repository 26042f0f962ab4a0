package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/flow"
)

func nop(ctx context.Context, inv *flow.Invocation) error { return nil }

func TestRegistry(t *testing.T) {
	r := New()
	r.RegisterOperator(&Operator{Name: "noop", Handler: nop})
	r.RegisterOperator(&Operator{Name: "alpha", Handler: nop})

	op, ok := r.Operator("noop")
	require.True(t, ok)
	assert.Equal(t, "noop", op.Name)

	_, ok = r.Operator("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "noop"}, r.Names())
}

func TestRegisterOperatorDuplicatePanics(t *testing.T) {
	r := New()
	r.RegisterOperator(&Operator{Name: "noop", Handler: nop})
	assert.Panics(t, func() {
		r.RegisterOperator(&Operator{Name: "noop", Handler: nop})
	})
}

package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func emitInt(dataName string, value int64) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		return Emit(inv, dataName, value)
	}
}

func emitBool(dataName string, value bool) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		return Emit(inv, dataName, value)
	}
}

// sumReady sums every ready dependency into the named output.
func sumReady(dataName string) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		var total int64
		for _, dep := range inv.Dependencies() {
			total += dep.AsInt64()
		}
		return Emit(inv, dataName, total)
	}
}

func TestGraphGatedDiamond(t *testing.T) {
	// A -> x, B -> y, D -> flag; C sums x and y, both edges gated on flag.
	build := func(flagValue bool, runsA, runsB *atomic.Int64, observed *[2]int64) *Graph {
		b := NewBuilder()
		b.Vertex("A", "const", func(ctx context.Context, inv *Invocation) error {
			runsA.Add(1)
			return Emit(inv, "x", int64(7))
		}).Emit("x")
		b.Vertex("B", "const", func(ctx context.Context, inv *Invocation) error {
			runsB.Add(1)
			return Emit(inv, "y", int64(9))
		}).Emit("y")
		b.Vertex("D", "const", emitBool("flag", flagValue)).Emit("flag")
		vc := b.Vertex("C", "sum", func(ctx context.Context, inv *Invocation) error {
			observed[0] = inv.Dependency("x").AsInt64()
			observed[1] = inv.Dependency("y").AsInt64()
			return Emit(inv, "z", observed[0]+observed[1])
		})
		vc.Depend("x").Condition("flag", true)
		vc.Depend("y").Condition("flag", true)
		vc.Emit("z")
		g, err := b.Build()
		require.NoError(t, err)
		return g
	}

	t.Run("condition true runs the full diamond", func(t *testing.T) {
		var runsA, runsB atomic.Int64
		var observed [2]int64
		g := build(true, &runsA, &runsB, &observed)

		require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 4}, "z"))

		assert.Equal(t, int64(1), runsA.Load())
		assert.Equal(t, int64(1), runsB.Load())
		assert.Equal(t, [2]int64{7, 9}, observed)
		assert.Equal(t, int64(16), *DataValue[int64](g.Data("z")))
	})

	t.Run("condition false skips the unreachable producers", func(t *testing.T) {
		var runsA, runsB atomic.Int64
		var observed [2]int64
		g := build(false, &runsA, &runsB, &observed)

		require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 4}, "z"))

		assert.Zero(t, runsA.Load(), "A sits behind an unsatisfied condition")
		assert.Zero(t, runsB.Load(), "B sits behind an unsatisfied condition")
		assert.Equal(t, [2]int64{0, 0}, observed, "non-established edges read as zero")
		assert.Equal(t, int64(0), *DataValue[int64](g.Data("z")))

		for _, dep := range g.Vertexes()[3].Dependencies() {
			assert.False(t, dep.Ready())
			assert.False(t, dep.Established())
			assert.Contains(t, []int64{-1, 0}, dep.waitingNum.Load())
		}
	})
}

func TestGraphMutableConflict(t *testing.T) {
	b := NewBuilder()
	b.Vertex("A", "const", emitInt("x", 7)).Emit("x")
	c1 := b.Vertex("C1", "sum", sumReady("z1"))
	c1.Depend("x").Mutable()
	c1.Emit("z1")
	c2 := b.Vertex("C2", "sum", sumReady("z2"))
	c2.Depend("x").Mutable()
	c2.Emit("z2")
	g, err := b.Build()
	require.NoError(t, err)

	err = g.Run(testCtx(t), RunOptions{Workers: 4}, "z1", "z2")
	require.Error(t, err, "two mutable consumers of one cell is a structural error")
	assert.True(t, g.closure.Finished())
	assert.Negative(t, g.closure.Code())
}

func TestGraphSharedImmutableConsumers(t *testing.T) {
	b := NewBuilder()
	b.Vertex("A", "const", emitInt("x", 5)).Emit("x")
	c1 := b.Vertex("C1", "sum", sumReady("z1"))
	c1.Depend("x")
	c1.Emit("z1")
	c2 := b.Vertex("C2", "sum", sumReady("z2"))
	c2.Depend("x")
	c2.Emit("z2")
	g, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 4}, "z1", "z2"))
	assert.Equal(t, int64(5), *DataValue[int64](g.Data("z1")))
	assert.Equal(t, int64(5), *DataValue[int64](g.Data("z2")))
}

func TestGraphProducerFailure(t *testing.T) {
	var ranC atomic.Int64
	b := NewBuilder()
	b.Vertex("D", "fail", func(ctx context.Context, inv *Invocation) error {
		return errors.New("gate producer exploded")
	}).Emit("flag")
	b.Vertex("A", "const", emitInt("x", 7)).Emit("x")
	vc := b.Vertex("C", "sum", func(ctx context.Context, inv *Invocation) error {
		ranC.Add(1)
		return Emit(inv, "z", inv.Dependency("x").AsInt64())
	})
	vc.Depend("x").Condition("flag", true)
	vc.Emit("z")
	g, err := b.Build()
	require.NoError(t, err)

	err = g.Run(testCtx(t), RunOptions{Workers: 4}, "z")
	require.Error(t, err)
	assert.Zero(t, ranC.Load(), "consumer must not run after its gate producer failed")
}

func TestGraphNonEssentialEdge(t *testing.T) {
	var ranW atomic.Int64
	var sawReady atomic.Bool
	b := NewBuilder()
	b.Vertex("A", "const", emitInt("x", 7)).Emit("x")
	b.Vertex("D", "const", emitBool("flag", false)).Emit("flag")
	b.Vertex("W", "const", func(ctx context.Context, inv *Invocation) error {
		ranW.Add(1)
		return Emit(inv, "w", int64(1))
	}).Emit("w")
	vc := b.Vertex("C", "sum", func(ctx context.Context, inv *Invocation) error {
		dep := inv.Dependency("w")
		sawReady.Store(dep.Ready())
		if Value[int64](dep) != nil {
			return errors.New("unsatisfied edge must read as nil")
		}
		return Emit(inv, "z", inv.Dependency("x").AsInt64())
	})
	vc.Depend("x")
	vc.Depend("w").Condition("flag", true).NonEssential()
	vc.Emit("z")
	g, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 4}, "z"))
	assert.Equal(t, int64(7), *DataValue[int64](g.Data("z")))
	assert.Zero(t, ranW.Load(), "producer behind the unsatisfied non-essential edge must stay dormant")
	assert.False(t, sawReady.Load())
}

func TestGraphChainActivatesOnlyRequested(t *testing.T) {
	// A -> x -> B -> y -> C -> z, plus an unrelated U -> u. Requesting z
	// must leave U untouched.
	var ranU atomic.Int64
	b := NewBuilder()
	b.Vertex("A", "const", emitInt("x", 1)).Emit("x")
	vb := b.Vertex("B", "sum", func(ctx context.Context, inv *Invocation) error {
		return Emit(inv, "y", inv.Dependency("x").AsInt64()+1)
	})
	vb.Depend("x")
	vb.Emit("y")
	vc := b.Vertex("C", "sum", func(ctx context.Context, inv *Invocation) error {
		return Emit(inv, "z", inv.Dependency("y").AsInt64()+1)
	})
	vc.Depend("y")
	vc.Emit("z")
	b.Vertex("U", "const", func(ctx context.Context, inv *Invocation) error {
		ranU.Add(1)
		return Emit(inv, "u", int64(99))
	}).Emit("u")
	g, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 2}, "z"))
	assert.Equal(t, int64(3), *DataValue[int64](g.Data("z")))
	assert.Zero(t, ranU.Load())
}

func TestGraphRepeatedRuns(t *testing.T) {
	var runs atomic.Int64
	b := NewBuilder()
	b.Vertex("A", "const", func(ctx context.Context, inv *Invocation) error {
		runs.Add(1)
		return Emit(inv, "x", runs.Load())
	}).Emit("x")
	vc := b.Vertex("C", "sum", sumReady("z"))
	vc.Depend("x")
	vc.Emit("z")
	g, err := b.Build()
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, g.Run(testCtx(t), RunOptions{Workers: 2}, "z"))
		assert.Equal(t, i, *DataValue[int64](g.Data("z")), "run %d", i)
	}
}

func TestGraphRunErrors(t *testing.T) {
	b := NewBuilder()
	b.Vertex("A", "const", emitInt("x", 1)).Emit("x")
	vc := b.Vertex("C", "sum", sumReady("z"))
	vc.Depend("x")
	vc.Emit("z")
	g, err := b.Build()
	require.NoError(t, err)

	t.Run("no outputs", func(t *testing.T) {
		assert.Error(t, g.Run(testCtx(t), RunOptions{}))
	})
	t.Run("unknown output", func(t *testing.T) {
		assert.ErrorContains(t, g.Run(testCtx(t), RunOptions{}, "nope"), "unknown output")
	})
	t.Run("producer-less output", func(t *testing.T) {
		b2 := NewBuilder()
		vb := b2.Vertex("C", "sum", sumReady("z"))
		vb.Depend("x")
		vb.Emit("z")
		g2, err := b2.Build()
		require.NoError(t, err)
		assert.ErrorContains(t, g2.Run(testCtx(t), RunOptions{}, "x"), "no producer")
	})
	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		blocked := make(chan struct{})
		t.Cleanup(func() { close(blocked) })

		b3 := NewBuilder()
		b3.Vertex("S", "stall", func(ctx context.Context, inv *Invocation) error {
			select {
			case <-blocked:
			case <-ctx.Done():
			}
			return Emit(inv, "s", int64(1))
		}).Emit("s")
		g3, err := b3.Build()
		require.NoError(t, err)
		assert.ErrorIs(t, g3.Run(ctx, RunOptions{Workers: 1}, "s"), context.Canceled)
	})
}

package flow

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/metrics"
)

// Graph is a built, runnable flow graph. Structure is immutable after
// Build; per-execution state is reset at the start of every Run. A Graph
// supports one execution at a time.
type Graph struct {
	vertexes []*Vertex
	data     map[string]*Data

	closure *Closure
	running atomic.Bool
}

// RunOptions tunes one execution.
type RunOptions struct {
	// Workers is the size of the execution pool; <= 0 selects the default.
	Workers int
	// Stats, when set, receives executor bookkeeping for this run.
	Stats *metrics.ExecutorStats
}

// Data returns the named cell, or nil.
func (g *Graph) Data(name string) *Data {
	return g.data[name]
}

// Vertexes returns every vertex in the graph.
func (g *Graph) Vertexes() []*Vertex {
	return g.vertexes
}

// reset clears all per-execution state.
func (g *Graph) reset() {
	for _, d := range g.data {
		d.reset()
	}
	for _, v := range g.vertexes {
		v.reset()
	}
}

// detectCycles runs a depth-first search over producer edges with the
// classic three-color marking. The activation core assumes an acyclic
// graph; a cycle is a build-time error.
func (g *Graph) detectCycles() error {
	permanent := make(map[*Vertex]bool)
	temporary := make(map[*Vertex]bool)

	var visit func(v *Vertex) error
	visit = func(v *Vertex) error {
		if permanent[v] {
			return nil
		}
		if temporary[v] {
			return fmt.Errorf("cycle detected involving vertex %q", v.name)
		}
		temporary[v] = true
		for _, dep := range v.deps {
			upstream := dep.target.producers
			if dep.condition != nil {
				upstream = append(append([]*Vertex{}, upstream...), dep.condition.producers...)
			}
			for _, producer := range upstream {
				if err := visit(producer); err != nil {
					return err
				}
			}
		}
		delete(temporary, v)
		permanent[v] = true
		return nil
	}

	for _, v := range g.vertexes {
		if !permanent[v] {
			if err := visit(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the graph until every requested output is ready, activating
// only the producers those outputs transitively require. It returns the
// first fatal error: a reservation conflict, a failing vertex, or context
// cancellation.
func (g *Graph) Run(ctx context.Context, opts RunOptions, outputs ...string) error {
	logger := ctxlog.FromContext(ctx)
	if len(outputs) == 0 {
		return fmt.Errorf("no outputs requested")
	}
	if !g.running.CompareAndSwap(false, true) {
		return fmt.Errorf("an execution is already in flight")
	}
	defer g.running.Store(false)

	g.reset()

	requested := make([]*Data, 0, len(outputs))
	for _, name := range outputs {
		d := g.data[name]
		if d == nil {
			return fmt.Errorf("unknown output data %q", name)
		}
		if len(d.producers) == 0 {
			return fmt.Errorf("output data %q has no producer", name)
		}
		requested = append(requested, d)
	}

	closure := newClosure(int64(len(requested)))
	g.closure = closure
	for _, d := range requested {
		d.notify = closure
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exec := newExecutor(g, opts)
	exec.start(runCtx)
	defer exec.wait()

	logger.Debug("Activating requested outputs.", "outputs", outputs)
	var activating DataStack
	var runnable VertexStack
	for _, d := range requested {
		d.Trigger(&activating)
	}
	if rc := drainActivation(&activating, &runnable, closure); rc != 0 {
		closure.Finish(rc)
	}
	exec.enqueue(&runnable)

	select {
	case <-closure.Done():
	case <-ctx.Done():
		closure.Finish(-1)
		return ctx.Err()
	}

	cancel()
	if code := closure.Code(); code != 0 {
		return fmt.Errorf("execution finished with code %d", code)
	}
	logger.Debug("Execution finished.", "outputs", outputs)
	return nil
}

package flow

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/zclconf/go-cty/cty"
)

// Handler is the user computation bound to a vertex. It reads upstream
// values through the invocation's dependencies and writes downstream values
// through its emits. A nonzero error fails the whole execution.
type Handler func(ctx context.Context, inv *Invocation) error

// Vertex is one computation node: a consumer of N dependency edges that
// becomes runnable when every essential edge has reported ready. Structure
// is fixed at build time; the activation latch and the waiting counter are
// per-execution state.
type Vertex struct {
	name    string
	op      string
	handler Handler
	args    map[string]cty.Value
	graph   *Graph

	deps       []*Dependency
	depByName  map[string]*Dependency
	emits      []*Data
	emitByName map[string]*Data

	// essentialNum is the static count of essential incoming edges;
	// waitingNum counts the ones that have not yet reported ready.
	essentialNum int64
	waitingNum   atomic.Int64
	activated    atomic.Bool
}

// Name returns the vertex name.
func (v *Vertex) Name() string {
	return v.name
}

// Op returns the operator the vertex was bound to at build time.
func (v *Vertex) Op() string {
	return v.op
}

func (v *Vertex) String() string {
	return fmt.Sprintf("vertex[%s]", v.name)
}

// Dependencies returns the vertex's incoming edges.
func (v *Vertex) Dependencies() []*Dependency {
	return v.deps
}

// Dependency returns the incoming edge bound to the given local name, or nil.
func (v *Vertex) Dependency(name string) *Dependency {
	return v.depByName[name]
}

// Emits returns the data cells this vertex produces.
func (v *Vertex) Emits() []*Data {
	return v.emits
}

// Closure returns the completion handle of the execution in flight.
func (v *Vertex) Closure() *Closure {
	return v.graph.closure
}

// reset clears per-execution state and re-arms the waiting counter with the
// static essential edge count.
func (v *Vertex) reset() {
	v.waitingNum.Store(v.essentialNum)
	v.activated.Store(false)
	for _, dep := range v.deps {
		dep.reset()
	}
}

// activate drives every incoming edge's activation exactly once per
// execution. Edges that resolve at activation time are counted immediately;
// the rest will report through depReady when their producers complete.
// Returns -1 on a fatal reservation conflict, 0 otherwise.
func (v *Vertex) activate(activating *DataStack, runnable *VertexStack, closure *Closure) int32 {
	if !v.activated.CompareAndSwap(false, true) {
		return 0
	}
	resolved := int64(0)
	for _, dep := range v.deps {
		switch dep.Activate(activating) {
		case -1:
			return -1
		case 1:
			if dep.essential {
				resolved++
			}
		}
	}
	if v.essentialNum == 0 {
		// Nothing will ever report; the vertex is runnable as soon as it is
		// activated.
		runnable.Push(v)
		return 0
	}
	if resolved > 0 && v.waitingNum.Add(-resolved) == 0 {
		runnable.Push(v)
	}
	return 0
}

// depReady is the aggregation point for edge completions. It returns true
// exactly once, when the last essential edge reports and no fatal error has
// settled the execution; non-essential edges never unblock the vertex.
func (v *Vertex) depReady(dep *Dependency) bool {
	if !dep.essential {
		return false
	}
	if v.waitingNum.Add(-1) != 0 {
		return false
	}
	if closure := v.graph.closure; closure != nil && closure.Finished() && closure.Code() != 0 {
		return false
	}
	return true
}

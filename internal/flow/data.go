package flow

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/logging"
)

// Data is a single logical output slot of a producer vertex: a named, typed,
// single-producer / many-consumer value cell. Its structure (producers,
// consumer edges, declared type) is fixed at build time; the value, readiness
// and reservation state are per-execution and cleared by reset.
type Data struct {
	name         string
	declaredType reflect.Type
	producers    []*Vertex
	// consumers are the edges referencing this cell as either their target
	// or their condition; both roles get the same readiness callback.
	consumers []*Dependency

	value    any
	hasValue bool
	ready    atomic.Bool
	// activated latches the first Trigger so a cell joins the activation
	// frontier at most once per execution.
	activated atomic.Bool
	// reservation arbitrates consumer access: 0 free, -1 exclusively
	// mutable, n>0 shared by n immutable readers.
	reservation atomic.Int64
	// notify is set for requested outputs while a run is in flight.
	notify *Closure
}

// Name returns the cell's graph-wide unique name.
func (d *Data) Name() string {
	return d.name
}

func (d *Data) String() string {
	return fmt.Sprintf("data[%s]", d.name)
}

// Ready reports whether the producing vertex has finished this execution.
// Readiness is monotonic within one execution.
func (d *Data) Ready() bool {
	return d.ready.Load()
}

// Empty reports whether no value has been written. A ready cell may remain
// empty when its producer chose to publish nothing.
func (d *Data) Empty() bool {
	return !d.hasValue
}

// Producers returns the vertexes that may write this cell.
func (d *Data) Producers() []*Vertex {
	return d.producers
}

// AcquireImmutable grants shared read access. It fails only when an
// exclusive mutable reservation is already held, and stacks across any
// number of shared consumers.
func (d *Data) AcquireImmutable() bool {
	for {
		cur := d.reservation.Load()
		if cur < 0 {
			return false
		}
		if d.reservation.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// AcquireMutable grants exclusive write access. It fails when any other
// reservation, shared or exclusive, is already held.
func (d *Data) AcquireMutable() bool {
	return d.reservation.CompareAndSwap(0, -1)
}

// Trigger records that this cell is being activated, pushing it onto the
// activation frontier the first time.
func (d *Data) Trigger(activating *DataStack) {
	if d.activated.CompareAndSwap(false, true) {
		activating.Push(d)
	}
}

// RecursiveActivate schedules this cell's producer chain immediately. It is
// used on the ready-completion path, when a satisfied condition uncovers a
// target whose ancestors were skipped behind the formerly unresolved branch.
// Vertexes that come out runnable are pushed to runnable.
func (d *Data) RecursiveActivate(runnable *VertexStack, closure *Closure) int32 {
	var activating DataStack
	d.Trigger(&activating)
	return drainActivation(&activating, runnable, closure)
}

// drainActivation walks the activation frontier: pop a cell, activate every
// producer vertex, which in turn activates its own dependencies and may push
// further cells. Returns the first nonzero activation error.
func drainActivation(activating *DataStack, runnable *VertexStack, closure *Closure) int32 {
	for {
		data, ok := activating.Pop()
		if !ok {
			return 0
		}
		for _, vertex := range data.producers {
			if rc := vertex.activate(activating, runnable, closure); rc != 0 {
				return rc
			}
		}
	}
}

// publish marks the cell ready and drives every consumer edge's completion
// callback, then accounts the cell against the closure when it is a
// requested output. Called exactly once per execution, by the executor after
// the producing vertex finishes.
func (d *Data) publish(runnable *VertexStack) {
	if d.ready.Swap(true) {
		return
	}
	for _, dep := range d.consumers {
		dep.DataReady(d, runnable)
	}
	if d.notify != nil {
		d.notify.dataReady()
	}
}

// setValue stores the producer's value. The cell's type is locked by the
// first write and checked thereafter.
func (d *Data) setValue(value any, typ reflect.Type) error {
	if d.declaredType == nil {
		d.declaredType = typ
	} else if d.declaredType != typ {
		logging.Log(logging.SeverityWarning).Warn("emit type mismatch",
			"data", d.name, "declared", d.declaredType.String(), "got", typ.String())
		return fmt.Errorf("data %q declared as %s, emitted as %s", d.name, d.declaredType, typ)
	}
	d.value = value
	d.hasValue = true
	return nil
}

func (d *Data) reset() {
	d.value = nil
	d.hasValue = false
	d.ready.Store(false)
	d.activated.Store(false)
	d.reservation.Store(0)
	d.notify = nil
}

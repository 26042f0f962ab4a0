package flow

import (
	"reflect"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/logging"
)

// Dependency is one edge of the graph: the source vertex reads the target
// data cell, optionally gated by a boolean condition cell. The edge is
// "established" when the condition resolves to establishValue, or
// unconditionally when there is no condition.
//
// All concurrency on an edge funnels through waitingNum, a signed counter
// mutated by two independent actors: the activator walking the DAG from the
// requested outputs, and the completers publishing the condition and target
// cells. Activation adds +1 (+2 with a condition); each completion subtracts
// 1; an unsatisfied condition subtracts a second 1 to pre-cancel the target
// decrement it may never see. After quiescence the counter always lands in
// {-1, 0}:
//
//	-1  condition unsatisfied and the target completed as well, unless the
//	    activation and the target completion both preceded the condition
//	 0  condition satisfied or absent; or condition unsatisfied in every
//	    other interleaving
//
// Post-operation values above 0 are transient and tell the observing actor
// what still needs pushing: 1 means the target (or a ready condition) is
// outstanding, 2 means the condition is outstanding.
type Dependency struct {
	source         *Vertex
	target         *Data
	condition      *Data
	establishValue bool
	mutable        bool
	essential      bool
	localName      string

	waitingNum  atomic.Int64
	established atomic.Bool
	readyFlag   atomic.Bool
}

// IsMutable reports whether the edge claims exclusive access to its target.
func (d *Dependency) IsMutable() bool {
	return d.mutable
}

// IsEssential reports whether the edge must be ready before the source
// vertex may run.
func (d *Dependency) IsEssential() bool {
	return d.essential
}

// Ready reports whether the edge has resolved ready: established and with a
// ready target. An unestablished edge terminates with Ready() == false.
func (d *Dependency) Ready() bool {
	return d.readyFlag.Load()
}

// Established reports whether the condition matched its configured polarity
// (true for unconditional edges once resolved).
func (d *Dependency) Established() bool {
	return d.established.Load()
}

// Empty reports whether the target holds no value.
func (d *Dependency) Empty() bool {
	return d.target.Empty()
}

// Target returns the data cell this edge reads.
func (d *Dependency) Target() *Data {
	return d.target
}

// LocalName returns the name the source vertex binds this edge under.
func (d *Dependency) LocalName() string {
	return d.localName
}

func (d *Dependency) reset() {
	d.waitingNum.Store(0)
	d.established.Store(false)
	d.readyFlag.Store(false)
}

// checkEstablished resolves the establishment flag from the condition's
// current value. Both the activator and the condition's completer may call
// it; they agree on the outcome because the condition cell is ready and
// frozen by then.
func (d *Dependency) checkEstablished() bool {
	if d.condition == nil {
		d.established.Store(true)
	} else if d.condition.asBool() == d.establishValue {
		d.established.Store(true)
	}
	return d.established.Load()
}

// acquireTarget takes the reservation this edge declared. A false return is
// the structural error of granting a mutable consumer alongside any other
// consumer.
func (d *Dependency) acquireTarget() bool {
	var acquired bool
	if d.mutable {
		acquired = d.target.AcquireMutable()
	} else {
		acquired = d.target.AcquireImmutable()
	}
	if !acquired {
		logging.Log(logging.SeverityWarning).Warn(
			"dependency can not be mutable for other already depend it",
			"source", d.source.String(), "target", d.target.String(), "mutable", d.mutable)
	}
	return acquired
}

// Activate drives the edge from the activator side, exactly once per
// execution. It adds +1 (+2 for conditional edges) to waitingNum and
// branches on the post-add value:
//
//	-1  already ready before activation, condition unsatisfied: resolved.
//	 0  everything outstanding already completed, or an unsatisfied
//	    condition pre-cancelled the target: reserve the target if the
//	    edge is established.
//	 1  the add landed first: push whatever is still outstanding.
//	 2  conditional edge, nothing completed yet: push the condition.
//
// Returns 1 when the edge resolved without pushing anything, 0 when
// completions are still outstanding, -1 on a reservation conflict.
func (d *Dependency) Activate(activating *DataStack) int32 {
	delta := int64(1)
	if d.condition != nil {
		delta = 2
	}
	waitingNum := d.waitingNum.Add(delta)
	switch waitingNum {
	case -1:
		// The target's decrement and both decrements of an unsatisfied
		// condition landed first.
		return 1
	case 0:
		// Ready before activation, condition possibly satisfied.
		if d.checkEstablished() {
			if !d.acquireTarget() {
				return -1
			}
			d.readyFlag.Store(d.target.Ready())
		}
		return 1
	case 1:
		if d.condition == nil {
			d.established.Store(true)
			if !d.acquireTarget() {
				return -1
			}
			d.target.Trigger(activating)
		} else if !d.condition.Ready() {
			d.condition.Trigger(activating)
		} else if d.checkEstablished() {
			if !d.acquireTarget() {
				return -1
			}
			d.target.Trigger(activating)
		}
		// Otherwise the condition resolved unsatisfied while waitingNum is
		// still 1: its second decrement is in flight and will carry the
		// counter to the -1 terminal. Nothing to push.
	case 2:
		d.condition.Trigger(activating)
	}
	return 0
}

// DataReady is the completion callback from a producing data cell; data is
// either the edge's condition or its target. It subtracts 1 from waitingNum
// and, when the condition just resolved unsatisfied, subtracts the second 1
// unless the counter already sits at 0 - the target may complete through
// another consumer's activation, and the {-1, 0} twin terminals of Activate
// absorb that race without double-reporting.
//
// Whichever actor lands the counter on 0 finalizes the edge: for the target
// that means ready = established; for the condition, ready additionally
// requires the target to have become ready already. The source vertex is
// then informed, and pushed to runnable when this was its last essential
// edge.
func (d *Dependency) DataReady(data *Data, runnable *VertexStack) {
	waitingNum := d.waitingNum.Add(-1)
	if data == d.condition {
		if d.checkEstablished() {
			if waitingNum == 1 {
				// The target decrement is still outstanding and nothing has
				// pushed the target yet - the activator only saw the
				// condition. Reserve the target and bring up the producer
				// chain that was skipped behind the unresolved branch.
				if !d.acquireTarget() {
					d.source.Closure().Finish(-1)
					return
				}
				if rc := d.target.RecursiveActivate(runnable, d.source.Closure()); rc != 0 {
					logging.Log(logging.SeverityWarning).Warn(
						"recursive activate failed",
						"target", d.target.String(), "code", rc)
					d.source.Closure().Finish(rc)
					return
				}
			}
		} else if waitingNum != 0 {
			waitingNum = d.waitingNum.Add(-1)
		}
	}
	if waitingNum == 0 && d.source != nil {
		if data == d.target {
			d.readyFlag.Store(d.checkEstablished())
		} else {
			d.readyFlag.Store(d.established.Load() && d.target.Ready())
		}
		if d.source.depReady(d) {
			runnable.Push(d.source)
		}
	}
}

// ActivatedVertexName names the producer behind a resolved edge. It returns
// (name, 0) when the edge is ready and the target has a producer, ("", 1)
// when the edge is ready but the target has none, and ("", -1) when the edge
// has not resolved ready.
func (d *Dependency) ActivatedVertexName() (string, int) {
	if !d.readyFlag.Load() {
		return "", -1
	}
	producers := d.target.Producers()
	if len(producers) == 0 {
		return "", 1
	}
	return producers[0].Name(), 0
}

// Value returns the target's value as *T, or nil when the edge is not ready
// or the target is empty.
func Value[T any](d *Dependency) *T {
	if !d.readyFlag.Load() || d.target.Empty() {
		return nil
	}
	return DataValue[T](d.target)
}

// MutableValue returns the target's value for exclusive mutation, or nil
// when the edge is not ready or did not declare mutable access.
func MutableValue[T any](d *Dependency) *T {
	if !d.readyFlag.Load() || !d.mutable {
		return nil
	}
	return DataValue[T](d.target)
}

// AnyValue returns the target's boxed value, or nil when the edge is not
// ready or the target is empty.
func (d *Dependency) AnyValue() any {
	if !d.readyFlag.Load() || d.target.Empty() {
		return nil
	}
	return reflect.ValueOf(d.target.value).Elem().Interface()
}

// AsBool coerces the target's value; false when not ready or empty.
func (d *Dependency) AsBool() bool {
	if !d.readyFlag.Load() {
		return false
	}
	return d.target.asBool()
}

// AsInt64 coerces the target's value; zero when not ready or empty.
func (d *Dependency) AsInt64() int64 {
	if !d.readyFlag.Load() {
		return 0
	}
	return d.target.asInt64()
}

// AsFloat64 coerces the target's value; zero when not ready or empty.
func (d *Dependency) AsFloat64() float64 {
	if !d.readyFlag.Load() {
		return 0
	}
	return d.target.asFloat64()
}

// AsString coerces the target's value; empty when not ready or empty.
func (d *Dependency) AsString() string {
	if !d.readyFlag.Load() {
		return ""
	}
	return d.target.asString()
}

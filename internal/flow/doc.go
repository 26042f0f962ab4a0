// Package flow implements the conditional dependency activation core of the
// dataflow executor.
//
// A flow graph is a DAG of vertexes that produce and consume named, typed
// data cells. Edges connect a consumer vertex to a producer data cell,
// optionally gated by a boolean condition computed elsewhere in the graph.
// Running a graph activates the minimum set of producers needed to satisfy
// the requested outputs: producers sitting behind an unsatisfied condition
// are never scheduled.
//
// The heart of the package is the per-edge activation state machine in
// Dependency. Each edge folds its whole concurrent lifecycle - activation by
// the driver, completion of its target, completion and evaluation of its
// condition - into a single signed atomic counter whose terminal value
// encodes which interleaving occurred. See Dependency.Activate and
// Dependency.DataReady for the full accounting.
package flow

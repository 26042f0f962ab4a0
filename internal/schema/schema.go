// Package schema defines the HCL surface of a flow definition file.
package schema

import "github.com/hashicorp/hcl/v2"

// VertexArgs is the content of the 'args' block within a vertex: free-form
// attributes decoded by the operator.
type VertexArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Depend is one incoming edge declaration of a vertex.
type Depend struct {
	// Data names the cell this edge reads.
	Data string `hcl:"data"`
	// As rebinds the edge's local name; defaults to Data.
	As string `hcl:"as,optional"`
	// Condition names the boolean cell gating the edge, if any.
	Condition string `hcl:"condition,optional"`
	// Establish is the polarity the condition must match; defaults to true.
	Establish *bool `hcl:"establish,optional"`
	// Mutable claims exclusive access to the target cell.
	Mutable bool `hcl:"mutable,optional"`
	// Essential edges block the vertex until ready; defaults to true.
	Essential *bool `hcl:"essential,optional"`
}

// Emit declares one output cell produced by a vertex.
type Emit struct {
	Data string `hcl:"data"`
}

// Vertex represents a `vertex` block from a user's flow file.
type Vertex struct {
	Name      string      `hcl:"name,label"`
	Op        string      `hcl:"op"`
	Arguments *VertexArgs `hcl:"args,block"`
	Depends   []*Depend   `hcl:"depend,block"`
	Emits     []*Emit     `hcl:"emit,block"`
}

// Flow is the optional top-level execution block: which cells to request
// and how wide the worker pool runs.
type Flow struct {
	Outputs []string `hcl:"outputs,optional"`
	Workers int      `hcl:"workers,optional"`
}

// FlowConfig is the top-level structure of a flow file.
type FlowConfig struct {
	Flow     *Flow     `hcl:"flow,block"`
	Vertexes []*Vertex `hcl:"vertex,block"`
	Body     hcl.Body  `hcl:",remain"`
}

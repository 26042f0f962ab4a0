package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/flowgridgo/internal/flow"
)

// Module is the interface all operator packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Operator is one named computation kind a vertex can be bound to.
type Operator struct {
	// Name is the value of a vertex's `op` attribute.
	Name string
	// Description is a one-line human-readable summary of the operator.
	Description string
	// Handler is the computation invoked for each vertex of this kind.
	Handler flow.Handler
}

// Registry holds the operators available to one application instance.
type Registry struct {
	operators map[string]*Operator
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{operators: make(map[string]*Operator)}
}

// RegisterOperator adds an operator. Registering the same name twice is a
// programmer error.
func (r *Registry) RegisterOperator(op *Operator) {
	if _, exists := r.operators[op.Name]; exists {
		panic(fmt.Sprintf("operator %q already registered", op.Name))
	}
	slog.Debug("Registering operator.", "name", op.Name)
	r.operators[op.Name] = op
}

// Operator looks up an operator by name.
func (r *Registry) Operator(name string) (*Operator, bool) {
	op, ok := r.operators[name]
	return op, ok
}

// Names returns the registered operator names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.operators))
	for name := range r.operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

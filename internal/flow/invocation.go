package flow

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Invocation is the view of a vertex handed to its handler for one
// execution: the build-time arguments, the incoming edges for reading
// upstream values, and the emit surface for publishing downstream values.
type Invocation struct {
	vertex *Vertex
	args   map[string]cty.Value
}

// VertexName returns the executing vertex's name.
func (inv *Invocation) VertexName() string {
	return inv.vertex.name
}

// Args returns the vertex's build-time arguments.
func (inv *Invocation) Args() map[string]cty.Value {
	return inv.args
}

// Arg returns one build-time argument; cty.NilVal when absent.
func (inv *Invocation) Arg(name string) cty.Value {
	return inv.args[name]
}

// Dependencies returns the vertex's incoming edges.
func (inv *Invocation) Dependencies() []*Dependency {
	return inv.vertex.deps
}

// Dependency returns the incoming edge bound to the given local name, or nil.
func (inv *Invocation) Dependency(name string) *Dependency {
	return inv.vertex.depByName[name]
}

// EmitNames returns the names of the cells this vertex produces.
func (inv *Invocation) EmitNames() []string {
	names := make([]string, 0, len(inv.vertex.emits))
	for _, data := range inv.vertex.emits {
		names = append(names, data.name)
	}
	return names
}

// EmitValue writes value into the named output cell. The value is staged;
// the cell becomes ready only after the handler returns. A handler that
// emits nothing still completes its cells, ready-but-empty.
func (inv *Invocation) EmitValue(dataName string, value any) error {
	data, ok := inv.vertex.emitByName[dataName]
	if !ok {
		return fmt.Errorf("vertex %q does not emit data %q", inv.vertex.name, dataName)
	}
	rv := reflect.ValueOf(value)
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return data.setValue(ptr.Interface(), rv.Type())
}

// Emit is the typed form of EmitValue.
func Emit[T any](inv *Invocation, dataName string, value T) error {
	data, ok := inv.vertex.emitByName[dataName]
	if !ok {
		return fmt.Errorf("vertex %q does not emit data %q", inv.vertex.name, dataName)
	}
	return data.setValue(&value, reflect.TypeFor[T]())
}

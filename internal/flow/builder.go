package flow

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Builder assembles a Graph: vertexes bound to operators, data cells named
// graph-wide, and the edges between them. Structural errors are collected
// and reported by Build, so call sites chain declarations without checking
// each one.
type Builder struct {
	data     map[string]*Data
	vertexes []*Vertex
	errs     []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{data: make(map[string]*Data)}
}

// Data returns the named cell, creating it on first reference.
func (b *Builder) Data(name string) *Data {
	if d, ok := b.data[name]; ok {
		return d
	}
	d := &Data{name: name}
	b.data[name] = d
	return d
}

// Vertex declares a computation node bound to the given operator handler.
func (b *Builder) Vertex(name, op string, handler Handler) *VertexBuilder {
	v := &Vertex{
		name:       name,
		op:         op,
		handler:    handler,
		depByName:  make(map[string]*Dependency),
		emitByName: make(map[string]*Data),
	}
	b.vertexes = append(b.vertexes, v)
	return &VertexBuilder{builder: b, vertex: v}
}

// VertexBuilder accumulates one vertex's edges, emits and arguments.
type VertexBuilder struct {
	builder *Builder
	vertex  *Vertex
}

// Args attaches build-time arguments passed verbatim to the handler.
func (vb *VertexBuilder) Args(args map[string]cty.Value) *VertexBuilder {
	vb.vertex.args = args
	return vb
}

// Depend declares an incoming edge reading the named data cell. The edge is
// essential and immutable unless the returned builder says otherwise.
func (vb *VertexBuilder) Depend(dataName string) *DependencyBuilder {
	dep := &Dependency{
		source:    vb.vertex,
		target:    vb.builder.Data(dataName),
		essential: true,
		localName: dataName,
	}
	vb.vertex.deps = append(vb.vertex.deps, dep)
	return &DependencyBuilder{vertexBuilder: vb, dep: dep}
}

// Emit declares an output cell produced by this vertex.
func (vb *VertexBuilder) Emit(dataName string) *VertexBuilder {
	data := vb.builder.Data(dataName)
	data.producers = append(data.producers, vb.vertex)
	vb.vertex.emits = append(vb.vertex.emits, data)
	vb.vertex.emitByName[dataName] = data
	return vb
}

// DependencyBuilder refines one edge.
type DependencyBuilder struct {
	vertexBuilder *VertexBuilder
	dep           *Dependency
}

// As rebinds the edge's local name, used by the handler to look it up.
func (db *DependencyBuilder) As(localName string) *DependencyBuilder {
	db.dep.localName = localName
	return db
}

// Condition gates the edge on the named boolean cell matching establish.
func (db *DependencyBuilder) Condition(dataName string, establish bool) *DependencyBuilder {
	db.dep.condition = db.vertexBuilder.builder.Data(dataName)
	db.dep.establishValue = establish
	return db
}

// Mutable claims exclusive write access to the target.
func (db *DependencyBuilder) Mutable() *DependencyBuilder {
	db.dep.mutable = true
	return db
}

// NonEssential marks the edge as not blocking the source vertex.
func (db *DependencyBuilder) NonEssential() *DependencyBuilder {
	db.dep.essential = false
	return db
}

// Vertex returns to the owning vertex builder for further declarations.
func (db *DependencyBuilder) Vertex() *VertexBuilder {
	return db.vertexBuilder
}

// Build freezes the declarations into a runnable Graph: wires consumer
// lists, counts essential edges, resolves local-name collisions, and
// rejects structural defects including dependency cycles.
func (b *Builder) Build() (*Graph, error) {
	seen := make(map[string]bool, len(b.vertexes))
	for _, v := range b.vertexes {
		if v.name == "" {
			b.errs = append(b.errs, fmt.Errorf("vertex with empty name"))
			continue
		}
		if seen[v.name] {
			b.errs = append(b.errs, fmt.Errorf("duplicate vertex name %q", v.name))
			continue
		}
		seen[v.name] = true
		if v.handler == nil {
			b.errs = append(b.errs, fmt.Errorf("vertex %q has no handler", v.name))
		}
		for _, dep := range v.deps {
			if dep.condition == dep.target {
				b.errs = append(b.errs, fmt.Errorf(
					"vertex %q: edge on %q is its own condition", v.name, dep.target.name))
				continue
			}
			if prev, dup := v.depByName[dep.localName]; dup && prev != dep {
				b.errs = append(b.errs, fmt.Errorf(
					"vertex %q: duplicate dependency name %q", v.name, dep.localName))
				continue
			}
			v.depByName[dep.localName] = dep
			dep.target.consumers = append(dep.target.consumers, dep)
			if dep.condition != nil {
				dep.condition.consumers = append(dep.condition.consumers, dep)
			}
			if dep.essential {
				v.essentialNum++
			}
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("graph build failed: %w", b.errs[0])
	}

	g := &Graph{vertexes: b.vertexes, data: b.data}
	for _, v := range b.vertexes {
		v.graph = g
	}
	if err := g.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	return g, nil
}

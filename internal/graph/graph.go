// Package graph builds the reference graph of a Declared-Types Table and
// renders it as a Mermaid diagram.
package graph

import (
	"sort"

	"github.com/flightsw/fswparse/internal/ctype"
)

// Edge kinds describe how a declaration mentions another type.
const (
	// ViaField is a by-value member or array element
	ViaField = "field"
	// ViaPointer is a reference through a pointer
	ViaPointer = "pointer"
	// ViaAlias is a typedef naming the type it stands for
	ViaAlias = "alias"
)

// Edge is a reference from one declared type to another.
type Edge struct {
	To  string
	Via string
}

// Graph represents the references between declared types.
type Graph struct {
	// Kinds holds the variant of every node
	Kinds map[string]ctype.Kind
	// Adjacency list: type -> types its declaration mentions
	Edges map[string][]Edge
	// Reverse adjacency: type -> types that mention it
	ReverseEdges map[string][]string
}

func newGraph() *Graph {
	return &Graph{
		Kinds:        make(map[string]ctype.Kind),
		Edges:        make(map[string][]Edge),
		ReverseEdges: make(map[string][]string),
	}
}

// FromTable builds the graph of table. Every entry becomes a node; an edge
// A -> B is added when the declaration of A contains a named type B that is
// itself in the table. Nested named types are not descended into, so each
// edge reflects one direct mention.
func FromTable(table ctype.Table) *Graph {
	g := newGraph()
	for _, name := range table.Names() {
		typ, ok := table.Lookup(name)
		if !ok {
			continue
		}
		g.Kinds[name] = typ.Kind()
		g.Edges[name] = []Edge{}
	}

	for _, name := range table.Names() {
		typ, ok := table.Lookup(name)
		if !ok {
			continue
		}
		w := &walker{table: table, graph: g, from: name, seen: make(map[Edge]bool)}
		if td, isTypedef := typ.(*ctype.Typedef); isTypedef {
			// typedef struct Foo Foo shares its name with the record
			if rec, isRecord := td.Underlying.(*ctype.Record); isRecord && rec.Name == name {
				w.walkBody(rec)
				continue
			}
			w.walk(td.Underlying, ViaAlias)
		} else {
			w.walkBody(typ)
		}
	}

	for from := range g.ReverseEdges {
		sort.Strings(g.ReverseEdges[from])
	}
	return g
}

type walker struct {
	table ctype.Table
	graph *Graph
	from  string
	seen  map[Edge]bool
}

// walkBody descends into a top-level record without treating its own name
// as a reference.
func (w *walker) walkBody(t ctype.Type) {
	rec, ok := t.(*ctype.Record)
	if !ok {
		w.walk(t, ViaField)
		return
	}
	for _, f := range rec.Fields {
		w.walk(f.Type, ViaField)
	}
}

func (w *walker) walk(t ctype.Type, via string) {
	switch v := t.(type) {
	case *ctype.Record:
		if w.known(v.Name) {
			w.add(v.Name, via)
			return
		}
		if via == ViaAlias {
			via = ViaField
		}
		for _, f := range v.Fields {
			w.walk(f.Type, via)
		}

	case *ctype.Typedef:
		if w.known(v.Name) {
			w.add(v.Name, via)
			return
		}
		w.walk(v.Underlying, via)

	case *ctype.Enum:
		if w.known(v.Name) {
			w.add(v.Name, via)
		}

	case *ctype.Primitive:
		if rec, ok := w.table.LookupRecord(v.Spelling); ok {
			w.add(rec.Name, via)
		}

	case *ctype.Pointer:
		w.walk(v.Pointee, ViaPointer)

	case *ctype.Array:
		w.walk(v.Element, via)

	case *ctype.FunctionType:
		w.walk(v.Return, via)
		for _, arg := range v.Args {
			w.walk(arg.Type, via)
		}
	}
}

func (w *walker) known(name string) bool {
	if name == "" {
		return false
	}
	_, ok := w.graph.Kinds[name]
	return ok
}

func (w *walker) add(to, via string) {
	e := Edge{To: to, Via: via}
	if w.seen[e] {
		return
	}
	w.seen[e] = true
	w.graph.Edges[w.from] = append(w.graph.Edges[w.from], e)
	w.graph.ReverseEdges[to] = append(w.graph.ReverseEdges[to], w.from)
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Kinds)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, edges := range g.Edges {
		count += len(edges)
	}
	return count
}

// Dependents returns the types whose declarations mention name.
func (g *Graph) Dependents(name string) []string {
	return g.ReverseEdges[name]
}

// sortedNodes returns node names sorted alphabetically for deterministic output.
func (g *Graph) sortedNodes() []string {
	names := make([]string, 0, len(g.Kinds))
	for name := range g.Kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

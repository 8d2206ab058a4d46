// Package graph provides the normalized node/edge-with-attributes shape
// shared by control flow, call and module graphs once they are built for
// presentation or persistence.
package graph

// Attrs is an open-ended attribute bag attached to nodes and edges.
type Attrs map[string]string

// Edge connects two node ids with its own attributes.
type Edge struct {
	Source string
	Target string
	Attrs  Attrs
}

// Graph is a directed graph with string node ids. Nodes keep insertion
// order so serialized output is stable across runs.
type Graph struct {
	Name string

	nodes map[string]Attrs
	order []string
	edges []Edge
}

// New returns an empty named graph.
func New(name string) *Graph {
	return &Graph{
		Name:  name,
		nodes: make(map[string]Attrs),
	}
}

// AddNode inserts a node. Adding an existing id merges the new attributes
// over the old ones without changing the node's position.
func (g *Graph) AddNode(id string, attrs Attrs) {
	existing, ok := g.nodes[id]
	if !ok {
		g.order = append(g.order, id)
		existing = make(Attrs)
		g.nodes[id] = existing
	}
	for k, v := range attrs {
		existing[k] = v
	}
}

// AddEdge appends a directed edge. Endpoints are not required to exist yet;
// Validate reports edges whose endpoints never materialize.
func (g *Graph) AddEdge(source, target string, attrs Attrs) {
	copied := make(Attrs, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	g.edges = append(g.edges, Edge{Source: source, Target: target, Attrs: copied})
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node's attributes.
func (g *Graph) Node(id string) (Attrs, bool) {
	attrs, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	copied := make(Attrs, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return copied, true
}

// NodeIDs returns the node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Successors returns the targets of every edge leaving id, in edge order.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// Predecessors returns the sources of every edge entering id, in edge order.
func (g *Graph) Predecessors(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e.Source)
		}
	}
	return out
}

func (g *Graph) inDegree(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.Target == id {
			n++
		}
	}
	return n
}

func (g *Graph) outDegree(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.Source == id {
			n++
		}
	}
	return n
}

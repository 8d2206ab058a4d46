package graph

import "fmt"

// EntryNodes returns the nodes with no incoming edges, in insertion order.
func EntryNodes(g *Graph) []string {
	var out []string
	for _, id := range g.NodeIDs() {
		if g.inDegree(id) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// ExitNodes returns the nodes with no outgoing edges, in insertion order.
func ExitNodes(g *Graph) []string {
	var out []string
	for _, id := range g.NodeIDs() {
		if g.outDegree(id) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Reachable returns the set of nodes reachable from start, including start
// itself when it exists.
func Reachable(g *Graph, start string) map[string]bool {
	visited := make(map[string]bool)
	if !g.HasNode(start) {
		return visited
	}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, succ := range g.Successors(id) {
			if !visited[succ] {
				stack = append(stack, succ)
			}
		}
	}
	return visited
}

// Subgraph returns the induced subgraph of every node within depth forward
// steps of the seed set. A depth of zero keeps only the seeds themselves.
func Subgraph(g *Graph, seeds []string, depth int) *Graph {
	keep := make(map[string]bool)
	frontier := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if g.HasNode(id) && !keep[id] {
			keep[id] = true
			frontier = append(frontier, id)
		}
	}

	for step := 0; step < depth && len(frontier) > 0; step++ {
		var next []string
		for _, id := range frontier {
			for _, succ := range g.Successors(id) {
				if !keep[succ] {
					keep[succ] = true
					next = append(next, succ)
				}
			}
		}
		frontier = next
	}

	sub := New(g.Name)
	for _, id := range g.NodeIDs() {
		if keep[id] {
			attrs, _ := g.Node(id)
			sub.AddNode(id, attrs)
		}
	}
	for _, e := range g.Edges() {
		if keep[e.Source] && keep[e.Target] {
			sub.AddEdge(e.Source, e.Target, e.Attrs)
		}
	}
	return sub
}

// ValidationResult separates structural errors from advisory warnings.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether validation found no errors. Warnings do not fail
// validation.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate checks the structural health of a graph. Edges referencing
// missing nodes and orphan nodes (no edges at all) are errors; cycles are
// reported as warnings since call graphs legitimately contain recursion.
func Validate(g *Graph) ValidationResult {
	var result ValidationResult

	for _, e := range g.Edges() {
		if !g.HasNode(e.Source) {
			result.Errors = append(result.Errors, fmt.Sprintf("edge references missing source node %q", e.Source))
		}
		if !g.HasNode(e.Target) {
			result.Errors = append(result.Errors, fmt.Sprintf("edge references missing target node %q", e.Target))
		}
	}

	if g.NodeCount() > 1 {
		for _, id := range g.NodeIDs() {
			if g.inDegree(id) == 0 && g.outDegree(id) == 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("orphan node %q", id))
			}
		}
	}

	for _, cycle := range findCycles(g) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cycle detected through node %q", cycle))
	}

	return result
}

// findCycles returns one representative node per back edge found during a
// depth-first walk over every component.
func findCycles(g *Graph) []string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int)
	var cycles []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		for _, succ := range g.Successors(id) {
			switch color[succ] {
			case white:
				if g.HasNode(succ) {
					visit(succ)
				}
			case grey:
				cycles = append(cycles, succ)
			}
		}
		color[id] = black
	}

	for _, id := range g.NodeIDs() {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}

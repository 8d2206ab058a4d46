// Package cfg builds typed control flow graphs for single functions.
// It provides node and edge kinds, the graph container, and a builder that
// walks the generic syntax tree of a function body.
package cfg

// NodeKind represents the type of a CFG node.
type NodeKind string

const (
	NodeKindEntry     NodeKind = "entry"     // Function entry point
	NodeKindExit      NodeKind = "exit"      // Function exit point
	NodeKindStatement NodeKind = "statement" // Regular statement
	NodeKindBranch    NodeKind = "branch"    // Conditional branch (if/switch)
	NodeKindLoop      NodeKind = "loop"      // Loop header (for/while/do)
	NodeKindReturn    NodeKind = "return"    // Return statement
)

// EdgeKind represents the type of a CFG edge.
type EdgeKind string

const (
	EdgeKindNormal   EdgeKind = "normal"    // Sequential flow
	EdgeKindTrue     EdgeKind = "true"      // Condition holds
	EdgeKindFalse    EdgeKind = "false"     // Condition fails
	EdgeKindBackEdge EdgeKind = "back_edge" // Loop continuation
	EdgeKindLoopExit EdgeKind = "loop_exit" // Loop termination
	EdgeKindReturn   EdgeKind = "return"    // Return to function exit
)

// Node is a single node in the control flow graph.
type Node struct {
	ID    string            `json:"id"`              // Unique identifier within the graph
	Kind  NodeKind          `json:"kind"`            // Node classification
	Label string            `json:"label"`           // Truncated statement or condition text
	Line  int               `json:"line"`            // One-based source line
	Calls []string          `json:"calls,omitempty"` // Names of functions called in this node
	Attrs map[string]string `json:"attrs,omitempty"` // Extra attributes (merge/exit links)
}

// Edge is a directed edge between two CFG nodes.
type Edge struct {
	Source string   `json:"source"` // ID of the source node
	Target string   `json:"target"` // ID of the target node
	Kind   EdgeKind `json:"kind"`   // Edge classification
}

// Graph is the complete control flow graph for one function.
type Graph struct {
	FunctionName string           `json:"function_name"` // Qualified function name
	Nodes        map[string]*Node `json:"nodes"`         // Map of node ID to node
	Edges        []Edge           `json:"edges"`         // Ordered list of edges
	EntryID      string           `json:"entry_id"`      // ID of the entry node
	ExitID       string           `json:"exit_id"`       // ID of the exit node
}

// NewGraph creates an empty graph for the named function.
func NewGraph(functionName string) *Graph {
	return &Graph{
		FunctionName: functionName,
		Nodes:        make(map[string]*Node),
		Edges:        make([]Edge, 0),
	}
}

// AddNode inserts the node into the graph, replacing any node with the same ID.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
}

// AddEdge appends an edge unless an identical (source, target, kind) edge
// already exists. Parallel edges of different kinds between the same pair
// are allowed.
func (g *Graph) AddEdge(source, target string, kind EdgeKind) {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return
		}
	}
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, Kind: kind})
}

// Successors returns the outgoing edges of the given node in insertion order.
func (g *Graph) Successors(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Predecessors returns the incoming edges of the given node in insertion order.
func (g *Graph) Predecessors(id string) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// OutDegree returns the number of outgoing edges of the given node.
func (g *Graph) OutDegree(id string) int {
	count := 0
	for _, e := range g.Edges {
		if e.Source == id {
			count++
		}
	}
	return count
}

// Complexity returns the cyclomatic complexity approximation for the
// function: one plus the number of branch and loop nodes.
func (g *Graph) Complexity() int {
	complexity := 1
	for _, n := range g.Nodes {
		if n.Kind == NodeKindBranch || n.Kind == NodeKindLoop {
			complexity++
		}
	}
	return complexity
}

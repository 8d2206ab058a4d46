// Package callgraph builds the whole-program call graph. Functions are
// registered under qualified names (namespace::class::function), calls are
// resolved against the registry with an ordered strategy list, and edges
// aggregate every call kind observed between a caller/callee pair.
package callgraph

import (
	"sort"
	"strings"
	"sync"
)

// CallKind classifies how a call site invokes its target.
type CallKind string

const (
	CallKindDirect   CallKind = "direct"   // Plain function call
	CallKindMethod   CallKind = "method"   // Member access call (obj.f or obj->f)
	CallKindExternal CallKind = "external" // Target not found in the registry
)

// Function is a registered function definition.
type Function struct {
	Name      string `json:"name"`                // Bare function name
	Namespace string `json:"namespace,omitempty"` // Enclosing namespace
	Class     string `json:"class,omitempty"`     // Enclosing class
	Qualified string `json:"qualified"`           // namespace::class::name
	File      string `json:"file"`                // Defining file path
	Line      int    `json:"line"`                // Definition line
	Signature string `json:"signature,omitempty"` // Formatted signature
}

// Edge is an aggregated call relation between two functions. Kinds lists
// every call kind observed between the pair, in first-seen order.
type Edge struct {
	Caller   string     `json:"caller"`
	Callee   string     `json:"callee"`
	Kinds    []CallKind `json:"kinds"`
	External bool       `json:"external,omitempty"` // Callee is not in the registry
}

type edgeKey struct {
	caller string
	callee string
}

// Builder accumulates functions and call sites and produces the call graph.
// All methods are safe for concurrent use.
type Builder struct {
	mu        sync.RWMutex
	functions map[string]*Function
	byName    map[string][]string // bare name -> qualified names, registration order
	order     []string            // qualified names in registration order
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey
}

// NewBuilder returns an empty call graph builder.
func NewBuilder() *Builder {
	return &Builder{
		functions: make(map[string]*Function),
		byName:    make(map[string][]string),
		edges:     make(map[edgeKey]*Edge),
	}
}

// Qualify joins non-empty name segments with the C++ scope separator.
func Qualify(namespace, class, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{namespace, class, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "::")
}

// AddFunction registers a function definition. Re-registering the same
// qualified name overwrites the stored metadata but keeps its position.
func (b *Builder) AddFunction(fn Function) {
	if fn.Qualified == "" {
		fn.Qualified = Qualify(fn.Namespace, fn.Class, fn.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.functions[fn.Qualified]; !exists {
		b.order = append(b.order, fn.Qualified)
		b.byName[fn.Name] = append(b.byName[fn.Name], fn.Qualified)
	}
	stored := fn
	b.functions[fn.Qualified] = &stored
}

// AddCall records a call from the registered caller to rawCallee. The callee
// is resolved against the registry; unresolved targets are kept under their
// source-text name and flagged external.
func (b *Builder) AddCall(callerQualified, rawCallee string, kind CallKind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	caller := b.functions[callerQualified]
	callee, resolved := b.resolveLocked(caller, rawCallee)
	if !resolved {
		kind = CallKindExternal
	}

	key := edgeKey{caller: callerQualified, callee: callee}
	edge, ok := b.edges[key]
	if !ok {
		edge = &Edge{Caller: callerQualified, Callee: callee, External: !resolved}
		b.edges[key] = edge
		b.edgeOrder = append(b.edgeOrder, key)
	}
	for _, k := range edge.Kinds {
		if k == kind {
			return
		}
	}
	edge.Kinds = append(edge.Kinds, kind)
}

// Function returns the registered function for the qualified name.
func (b *Builder) Function(qualified string) (Function, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.functions[qualified]
	if !ok {
		return Function{}, false
	}
	return *fn, true
}

// Functions returns all registered functions in registration order.
func (b *Builder) Functions() []Function {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Function, 0, len(b.order))
	for _, q := range b.order {
		out = append(out, *b.functions[q])
	}
	return out
}

// Edges returns all aggregated call edges in first-seen order.
func (b *Builder) Edges() []Edge {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Edge, 0, len(b.edgeOrder))
	for _, key := range b.edgeOrder {
		edge := b.edges[key]
		kinds := make([]CallKind, len(edge.Kinds))
		copy(kinds, edge.Kinds)
		out = append(out, Edge{Caller: edge.Caller, Callee: edge.Callee, Kinds: kinds, External: edge.External})
	}
	return out
}

// Callees returns the outgoing edges of the given function.
func (b *Builder) Callees(qualified string) []Edge {
	var out []Edge
	for _, e := range b.Edges() {
		if e.Caller == qualified {
			out = append(out, e)
		}
	}
	return out
}

// Callers returns the incoming edges of the given function.
func (b *Builder) Callers(qualified string) []Edge {
	var out []Edge
	for _, e := range b.Edges() {
		if e.Callee == qualified {
			out = append(out, e)
		}
	}
	return out
}

// EntryPoints returns registered functions whose bare name is in names,
// sorted by qualified name.
func (b *Builder) EntryPoints(names []string) []Function {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Function
	for _, q := range b.order {
		fn := b.functions[q]
		if nameSet[fn.Name] {
			out = append(out, *fn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Qualified < out[j].Qualified })
	return out
}

// TopologicalOrder returns registered functions ordered so callers precede
// their callees. The boolean is false when the graph contains a cycle; the
// functions on cycles are then appended in registration order, so the
// result always lists every registered function exactly once.
func (b *Builder) TopologicalOrder() ([]string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	indegree := make(map[string]int, len(b.order))
	successors := make(map[string][]string, len(b.order))
	for _, q := range b.order {
		indegree[q] = 0
	}
	for _, key := range b.edgeOrder {
		// edges to external targets do not constrain the ordering
		if _, ok := b.functions[key.callee]; !ok {
			continue
		}
		if key.caller == key.callee {
			continue
		}
		successors[key.caller] = append(successors[key.caller], key.callee)
		indegree[key.callee]++
	}

	var queue []string
	for _, q := range b.order {
		if indegree[q] == 0 {
			queue = append(queue, q)
		}
	}

	var ordered []string
	placed := make(map[string]bool, len(b.order))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)
		placed[current] = true
		for _, next := range successors[current] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	acyclic := len(ordered) == len(b.order)
	if !acyclic {
		for _, q := range b.order {
			if !placed[q] {
				ordered = append(ordered, q)
			}
		}
	}
	return ordered, acyclic
}

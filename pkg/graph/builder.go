package graph

import (
	"strconv"

	"github.com/cppflow/cppflow/pkg/ir"
)

// BuildCFGGraph converts one function's recovered control blocks into a
// normalized control flow graph with explicit entry and exit nodes. Block
// node ids are the block ids prefixed by the owning function id so graphs
// from different functions can be combined without collisions.
func BuildCFGGraph(fn *ir.FunctionIR) *Graph {
	g := New(fn.Name)

	entryID := fn.ID + "::entry"
	exitID := fn.ID + "::exit"
	g.AddNode(entryID, Attrs{"kind": "entry", "label": "entry"})
	g.AddNode(exitID, Attrs{"kind": "exit", "label": "exit"})

	b := &cfgEmitter{g: g, fnID: fn.ID, exitID: exitID}
	frontier := b.emit(fn.ControlBlocks, []string{entryID})
	for _, id := range frontier {
		g.AddEdge(id, exitID, Attrs{"kind": "normal"})
	}
	b.closeToExit()

	return g
}

type cfgEmitter struct {
	g      *Graph
	fnID   string
	exitID string
}

// emit lays a block list into the graph, wiring the incoming frontier to
// the first block and returning the frontier left after the last one.
func (b *cfgEmitter) emit(blocks []*ir.ControlBlock, frontier []string) []string {
	for _, block := range blocks {
		id := b.fnID + "::" + block.ID
		attrs := Attrs{"kind": string(block.Kind), "label": block.Label}
		if block.Condition != "" {
			attrs["condition"] = block.Condition
		}
		if line, ok := block.Metadata["line"]; ok {
			attrs["line"] = line
		}
		b.g.AddNode(id, attrs)

		for _, from := range frontier {
			b.g.AddEdge(from, id, Attrs{"kind": "normal"})
		}

		switch block.Kind {
		case ir.BlockReturn:
			b.g.AddEdge(id, b.exitID, Attrs{"kind": "return"})
			return nil

		case ir.BlockIf:
			thenFrontier := b.emit(block.Children, []string{id})
			var elseFrontier []string
			if len(block.ElseChildren) > 0 {
				elseFrontier = b.emit(block.ElseChildren, []string{id})
			} else {
				elseFrontier = []string{id}
			}
			frontier = append(thenFrontier, elseFrontier...)

		case ir.BlockLoop:
			bodyFrontier := b.emit(block.Children, []string{id})
			for _, from := range bodyFrontier {
				b.g.AddEdge(from, id, Attrs{"kind": "back_edge"})
			}
			frontier = []string{id}

		default:
			frontier = []string{id}
		}
	}
	return frontier
}

// closeToExit wires every terminal node other than exit to the exit node.
func (b *cfgEmitter) closeToExit() {
	for _, id := range b.g.NodeIDs() {
		if id == b.exitID {
			continue
		}
		if b.g.outDegree(id) == 0 {
			b.g.AddEdge(id, b.exitID, Attrs{"kind": "normal"})
		}
	}
}

// BuildCallGraph assembles a whole-program call graph from function IR.
// Callees are resolved by exact name match against the known functions;
// unresolved calls are dropped at this layer.
func BuildCallGraph(funcs []*ir.FunctionIR) *Graph {
	g := New("callgraph")

	known := make(map[string]*ir.FunctionIR, len(funcs))
	for _, fn := range funcs {
		known[fn.Name] = fn
		attrs := Attrs{
			"label": fn.Name,
			"file":  fn.File,
			"line":  strconv.Itoa(fn.Line),
		}
		if fn.IsEntryPoint {
			attrs["entry_point"] = "true"
		}
		g.AddNode(fn.Name, attrs)
	}

	seen := make(map[string]bool)
	for _, fn := range funcs {
		for _, call := range fn.Calls {
			if _, ok := known[call.Callee]; !ok {
				continue
			}
			key := fn.Name + "\x00" + call.Callee
			if seen[key] {
				continue
			}
			seen[key] = true
			g.AddEdge(fn.Name, call.Callee, Attrs{"kind": call.Kind})
		}
	}
	return g
}

// BuildModuleGraph assembles the module dependency graph from module IR.
// Dependencies on unknown modules are dropped.
func BuildModuleGraph(mods []*ir.ModuleIR) *Graph {
	g := New("modules")

	known := make(map[string]bool, len(mods))
	for _, m := range mods {
		known[m.Name] = true
		g.AddNode(m.Name, Attrs{
			"label":      m.Name,
			"file_count": strconv.Itoa(len(m.Files)),
		})
	}
	for _, m := range mods {
		for _, dep := range m.Dependencies {
			if !known[dep] || dep == m.Name {
				continue
			}
			g.AddEdge(m.Name, dep, Attrs{"kind": "depends"})
		}
	}
	return g
}

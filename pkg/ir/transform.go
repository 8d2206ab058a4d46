package ir

import (
	"strconv"

	"github.com/cppflow/cppflow/pkg/callgraph"
	"github.com/cppflow/cppflow/pkg/cfg"
	"github.com/cppflow/cppflow/pkg/modules"
	"github.com/cppflow/cppflow/pkg/syntax"
)

// Transformer recovers nested control blocks from control flow graphs and
// assembles function, module and project level IR.
type Transformer struct {
	EntryPointNames []string
}

// NewTransformer returns a Transformer recognizing the given entry point
// function names.
func NewTransformer(entryPoints []string) *Transformer {
	return &Transformer{EntryPointNames: entryPoints}
}

// TransformFunction builds the IR for one function from its declaration and
// control flow graph.
func (t *Transformer) TransformFunction(file string, decl syntax.FunctionDecl, g *cfg.Graph) *FunctionIR {
	qualified := callgraph.Qualify(decl.Namespace, decl.Class, decl.Info.Name)
	signature := FormatSignature(*decl.Info)

	fn := &FunctionIR{
		ID:            CreateUniqueID(file, qualified, signature),
		Name:          qualified,
		Signature:     signature,
		File:          file,
		Line:          decl.Node.StartLine(),
		Namespace:     decl.Namespace,
		ClassName:     decl.Class,
		Inputs:        paramInputs(decl.Info.Params),
		ControlBlocks: RecoverBlocks(g),
		Complexity:    g.Complexity(),
		IsEntryPoint:  t.isEntryPoint(decl.Info.Name),
	}
	if decl.Info.ReturnType != "" && decl.Info.ReturnType != "void" {
		fn.Outputs = []string{decl.Info.ReturnType}
	}
	seen := make(map[string]bool)
	for _, rc := range callgraph.ExtractCalls(decl.Node) {
		if seen[rc.Callee] {
			continue
		}
		seen[rc.Callee] = true
		fn.Calls = append(fn.Calls, CallSite{Callee: rc.Callee, Kind: string(rc.Kind), Line: rc.Line})
	}
	return fn
}

// TransformModule maps a module summary plus the functions defined in its
// files onto module IR. Functions defined under a public path segment form
// the module's public API, all others its private API; functions whose bare
// name is a recognized entry point fill the entry_points list.
func (t *Transformer) TransformModule(mod modules.Module, funcs []*FunctionIR) *ModuleIR {
	m := &ModuleIR{
		ID:             ScopedID("module", mod.Name),
		Name:           mod.Name,
		Path:           modulePath(mod.Name),
		Files:          mod.Files,
		Sources:        mod.Sources,
		PublicHeaders:  mod.PublicHeaders,
		PrivateHeaders: mod.PrivateHeaders,
		Dependencies:   mod.Dependencies,
	}
	for _, fn := range funcs {
		m.Functions = append(m.Functions, fn.ID)
		if fn.IsEntryPoint {
			m.EntryPoints = append(m.EntryPoints, fn.ID)
		}
		if modules.IsPublicPath(fn.File) {
			m.PublicAPI = append(m.PublicAPI, fn.ID)
		} else {
			m.PrivateAPI = append(m.PrivateAPI, fn.ID)
		}
	}
	return m
}

// TransformProject rolls modules and functions up into the project IR. Every
// module contributing at least one entry point gets a main flow entry, and
// the startup sequence concatenates those entry-point function ids in
// module order.
func (t *Transformer) TransformProject(name, root string, mods []*ModuleIR, funcs []*FunctionIR) *ProjectIR {
	p := &ProjectIR{
		ID:            ScopedID("project", name),
		Name:          name,
		RootPath:      root,
		FunctionCount: len(funcs),
		ModuleCount:   len(mods),
	}
	for _, m := range mods {
		p.Modules = append(p.Modules, m.ID)
		if len(m.EntryPoints) > 0 {
			p.MainFlows = append(p.MainFlows, MainFlow{Module: m.ID, EntryPoints: m.EntryPoints})
			p.StartupSequence = append(p.StartupSequence, m.EntryPoints...)
		}
	}
	return p
}

// modulePath maps a module name onto its directory relative to the project
// root. The root sentinel module lives at the root itself.
func modulePath(name string) string {
	if name == modules.RootModule {
		return "."
	}
	return name
}

func (t *Transformer) isEntryPoint(name string) bool {
	for _, candidate := range t.EntryPointNames {
		if name == candidate {
			return true
		}
	}
	return false
}

// RecoverBlocks rebuilds the nested control structure of a function from its
// control flow graph. Branch nodes carry the id of their merge node and loop
// nodes the id of their exit node, which lets the walk scope each arm and
// resume the outer sequence afterwards. Synthesized merge and loop exit
// nodes never surface as blocks.
func RecoverBlocks(g *cfg.Graph) []*ControlBlock {
	r := &recoverer{g: g, visited: make(map[string]bool)}
	start := firstSuccessor(g, g.EntryID, cfg.EdgeKindNormal)
	return r.sequence(start, map[string]bool{g.ExitID: true})
}

type recoverer struct {
	g       *cfg.Graph
	visited map[string]bool
}

// sequence recovers the block list starting at id and following fallthrough
// edges until the stop set or the function exit is reached.
func (r *recoverer) sequence(id string, stop map[string]bool) []*ControlBlock {
	var blocks []*ControlBlock
	for id != "" && !stop[id] {
		if r.visited[id] {
			break
		}
		r.visited[id] = true

		node, ok := r.g.Nodes[id]
		if !ok {
			break
		}
		if isSynthesized(node) {
			id = firstSuccessor(r.g, id, cfg.EdgeKindNormal)
			continue
		}

		switch node.Kind {
		case cfg.NodeKindReturn:
			blocks = append(blocks, r.newBlock(BlockReturn, node))
			return blocks

		case cfg.NodeKindBranch:
			block, next := r.recoverBranch(node, stop)
			blocks = append(blocks, block)
			id = next

		case cfg.NodeKindLoop:
			block, next := r.recoverLoop(node, stop)
			blocks = append(blocks, block)
			id = next

		default:
			blocks = append(blocks, r.newBlock(BlockSequence, node))
			id = firstSuccessor(r.g, id, cfg.EdgeKindNormal)
		}
	}
	return blocks
}

// recoverBranch scopes the branch arms by its merge node. A branch without a
// merge node has no arm that falls through, so the sequence ends there.
func (r *recoverer) recoverBranch(node *cfg.Node, stop map[string]bool) (*ControlBlock, string) {
	block := r.newBlock(BlockIf, node)
	mergeID := node.Attrs["merge"]

	armStop := withStop(stop, mergeID)
	for _, succ := range successors(r.g, node.ID, cfg.EdgeKindTrue) {
		block.Children = append(block.Children, r.sequence(succ, armStop)...)
	}
	for _, succ := range successors(r.g, node.ID, cfg.EdgeKindFalse) {
		if succ == mergeID {
			continue
		}
		block.ElseChildren = append(block.ElseChildren, r.sequence(succ, armStop)...)
	}
	return block, mergeID
}

// recoverLoop scopes the loop body by the loop header and its exit node,
// then resumes the outer sequence at the exit.
func (r *recoverer) recoverLoop(node *cfg.Node, stop map[string]bool) (*ControlBlock, string) {
	block := r.newBlock(BlockLoop, node)
	exitID := node.Attrs["exit"]

	bodyStop := withStop(stop, node.ID)
	if exitID != "" {
		bodyStop[exitID] = true
	}
	if body := firstSuccessor(r.g, node.ID, cfg.EdgeKindTrue); body != "" {
		block.Children = r.sequence(body, bodyStop)
	}
	return block, exitID
}

// newBlock derives a control block from a CFG node. The node's id becomes
// the block id, tying the recovered block back to the graph.
func (r *recoverer) newBlock(kind BlockKind, node *cfg.Node) *ControlBlock {
	block := &ControlBlock{
		ID:        node.ID,
		Kind:      kind,
		Label:     node.Label,
		Condition: node.Attrs["condition"],
	}
	if node.Line > 0 {
		block.Metadata = map[string]string{"line": strconv.Itoa(node.Line)}
	}
	return block
}

// isSynthesized reports whether the node was introduced by the CFG builder
// as flow plumbing rather than read from source.
func isSynthesized(node *cfg.Node) bool {
	return node.Attrs["synthetic"] != ""
}

func firstSuccessor(g *cfg.Graph, id string, kind cfg.EdgeKind) string {
	for _, e := range g.Edges {
		if e.Source == id && e.Kind == kind {
			return e.Target
		}
	}
	return ""
}

func successors(g *cfg.Graph, id string, kind cfg.EdgeKind) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Source == id && e.Kind == kind {
			out = append(out, e.Target)
		}
	}
	return out
}

func withStop(stop map[string]bool, extra string) map[string]bool {
	out := make(map[string]bool, len(stop)+1)
	for id := range stop {
		out[id] = true
	}
	if extra != "" {
		out[extra] = true
	}
	return out
}

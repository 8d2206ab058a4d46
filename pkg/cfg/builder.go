package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cppflow/cppflow/pkg/syntax"
)

// DefaultLabelMaxLen is the label truncation limit used when the builder
// is not configured otherwise.
const DefaultLabelMaxLen = 50

// Builder constructs control flow graphs from function syntax nodes.
type Builder struct {
	LabelMaxLen int

	graph   *Graph
	counter int
	loops   []loopContext
}

type loopContext struct {
	headerID string
	exitID   string
}

// pending is a dangling edge waiting for its target node. The frontier of
// the walk is a list of pending edges.
type pending struct {
	id   string
	kind EdgeKind
}

// NewBuilder returns a Builder with default settings.
func NewBuilder() *Builder {
	return &Builder{LabelMaxLen: DefaultLabelMaxLen}
}

// Build walks the body of the given function_definition node and returns
// its control flow graph. A function with an empty body yields a graph
// with a single normal edge from entry to exit.
func (b *Builder) Build(fn *syntax.Node, functionName string) *Graph {
	b.graph = NewGraph(functionName)
	b.counter = 0
	b.loops = nil

	entry := &Node{ID: functionName + "_entry", Kind: NodeKindEntry, Label: "entry", Line: fn.StartLine()}
	exit := &Node{ID: functionName + "_exit", Kind: NodeKindExit, Label: "exit", Line: fn.Span.End.Row + 1}
	b.graph.AddNode(entry)
	b.graph.AddNode(exit)
	b.graph.EntryID = entry.ID
	b.graph.ExitID = exit.ID

	var stmts []*syntax.Node
	if body := fn.ChildByKind("compound_statement"); body != nil {
		stmts = body.Children
	}

	if len(stmts) == 0 {
		b.graph.AddEdge(entry.ID, exit.ID, EdgeKindNormal)
		return b.graph
	}

	frontier := b.processStatements(stmts, []pending{{entry.ID, EdgeKindNormal}})
	for _, p := range frontier {
		b.graph.AddEdge(p.id, exit.ID, p.kind)
	}
	b.close()

	return b.graph
}

// processStatements threads the frontier through a statement list and
// returns the frontier left dangling after the last statement. An emptied
// frontier ends the list early: statements after a return, break or
// continue are unreachable and emit no nodes.
func (b *Builder) processStatements(stmts []*syntax.Node, frontier []pending) []pending {
	for _, stmt := range stmts {
		if len(frontier) == 0 {
			return nil
		}
		switch stmt.Kind {
		case "if_statement":
			frontier = b.processIf(stmt, frontier)

		case "for_statement", "for_range_loop", "while_statement", "do_statement":
			frontier = b.processLoop(stmt, frontier)

		case "switch_statement":
			frontier = b.processSwitch(stmt, frontier)

		case "return_statement", "throw_statement":
			frontier = b.processReturn(stmt, frontier)

		case "break_statement":
			frontier = b.processBreak(stmt, frontier)

		case "continue_statement":
			frontier = b.processContinue(stmt, frontier)

		case "compound_statement":
			frontier = b.processStatements(stmt.Children, frontier)

		case "condition_clause", "else_clause", "access_specifier", "case_statement":
			// handled by their parent constructs

		default:
			frontier = b.processStatement(stmt, frontier)
		}
	}
	return frontier
}

func (b *Builder) processStatement(stmt *syntax.Node, frontier []pending) []pending {
	node := b.newNode(NodeKindStatement, b.label(stmt.Text), stmt.StartLine())
	node.Calls = collectCalls(stmt)
	b.connect(frontier, node.ID)
	return []pending{{node.ID, EdgeKindNormal}}
}

func (b *Builder) processReturn(stmt *syntax.Node, frontier []pending) []pending {
	node := b.newNode(NodeKindReturn, b.label(stmt.Text), stmt.StartLine())
	node.Calls = collectCalls(stmt)
	b.connect(frontier, node.ID)
	b.graph.AddEdge(node.ID, b.graph.ExitID, EdgeKindReturn)
	return nil
}

func (b *Builder) processIf(stmt *syntax.Node, frontier []pending) []pending {
	condition := conditionText(stmt)
	branch := b.newNode(NodeKindBranch, b.label("if "+condition), stmt.StartLine())
	branch.Calls = collectClauseCalls(stmt)
	setAttr(branch, "condition", condition)
	b.connect(frontier, branch.ID)

	thenFrontier := b.processStatements(bodyStatements(stmt), []pending{{branch.ID, EdgeKindTrue}})

	elseClause := stmt.ChildByKind("else_clause")
	var elseFrontier []pending
	if elseClause != nil {
		elseFrontier = b.processStatements(bodyStatements(elseClause), []pending{{branch.ID, EdgeKindFalse}})
	} else {
		elseFrontier = []pending{{branch.ID, EdgeKindFalse}}
	}

	// no merge point when every path through the branch leaves the function
	if len(thenFrontier)+len(elseFrontier) == 0 {
		return nil
	}

	merge := &Node{
		ID:    branch.ID + "_merge",
		Kind:  NodeKindStatement,
		Label: "merge",
		Line:  stmt.Span.End.Row + 1,
	}
	b.graph.AddNode(merge)
	setAttr(merge, "synthetic", "merge")
	setAttr(branch, "merge", merge.ID)

	b.connectAs(thenFrontier, merge.ID, EdgeKindTrue)
	b.connectAs(elseFrontier, merge.ID, EdgeKindFalse)

	return []pending{{merge.ID, EdgeKindNormal}}
}

func (b *Builder) processLoop(stmt *syntax.Node, frontier []pending) []pending {
	loop := b.newNode(NodeKindLoop, b.label(header(stmt)), stmt.StartLine())
	loop.Calls = collectClauseCalls(stmt)
	if condition := conditionText(stmt); condition != "" {
		setAttr(loop, "condition", condition)
	} else {
		setAttr(loop, "condition", header(stmt))
	}
	b.connect(frontier, loop.ID)

	exitNode := &Node{
		ID:    loop.ID + "_exit",
		Kind:  NodeKindStatement,
		Label: "loop exit",
		Line:  stmt.Span.End.Row + 1,
	}
	b.graph.AddNode(exitNode)
	setAttr(exitNode, "synthetic", "loop_exit")
	setAttr(loop, "exit", exitNode.ID)
	b.graph.AddEdge(loop.ID, exitNode.ID, EdgeKindLoopExit)

	b.loops = append(b.loops, loopContext{headerID: loop.ID, exitID: exitNode.ID})
	bodyFrontier := b.processStatements(bodyStatements(stmt), []pending{{loop.ID, EdgeKindTrue}})
	b.loops = b.loops[:len(b.loops)-1]

	for _, p := range bodyFrontier {
		b.graph.AddEdge(p.id, loop.ID, EdgeKindBackEdge)
	}

	return []pending{{exitNode.ID, EdgeKindNormal}}
}

func (b *Builder) processSwitch(stmt *syntax.Node, frontier []pending) []pending {
	condition := conditionText(stmt)
	branch := b.newNode(NodeKindBranch, b.label("switch "+condition), stmt.StartLine())
	setAttr(branch, "condition", condition)
	b.connect(frontier, branch.ID)

	var out []pending
	hasDefault := false

	var cases []*syntax.Node
	var findCases func(n *syntax.Node)
	findCases = func(n *syntax.Node) {
		for _, c := range n.Children {
			if c.Kind == "case_statement" {
				cases = append(cases, c)
			} else if c.Kind == "compound_statement" {
				findCases(c)
			}
		}
	}
	findCases(stmt)

	for _, c := range cases {
		if strings.HasPrefix(strings.TrimSpace(c.Text), "default") {
			hasDefault = true
		}
		caseFrontier := b.processStatements(c.Children, []pending{{branch.ID, EdgeKindTrue}})
		out = append(out, caseFrontier...)
	}

	if !hasDefault {
		out = append(out, pending{branch.ID, EdgeKindFalse})
	}
	if len(out) == 0 {
		return nil
	}

	merge := &Node{
		ID:    branch.ID + "_merge",
		Kind:  NodeKindStatement,
		Label: "merge",
		Line:  stmt.Span.End.Row + 1,
	}
	b.graph.AddNode(merge)
	setAttr(merge, "synthetic", "merge")
	setAttr(branch, "merge", merge.ID)
	b.connect(out, merge.ID)

	return []pending{{merge.ID, EdgeKindNormal}}
}

func (b *Builder) processBreak(stmt *syntax.Node, frontier []pending) []pending {
	if len(b.loops) == 0 {
		return b.processStatement(stmt, frontier)
	}
	node := b.newNode(NodeKindStatement, "break", stmt.StartLine())
	b.connect(frontier, node.ID)
	b.graph.AddEdge(node.ID, b.loops[len(b.loops)-1].exitID, EdgeKindNormal)
	return nil
}

func (b *Builder) processContinue(stmt *syntax.Node, frontier []pending) []pending {
	if len(b.loops) == 0 {
		return b.processStatement(stmt, frontier)
	}
	node := b.newNode(NodeKindStatement, "continue", stmt.StartLine())
	b.connect(frontier, node.ID)
	b.graph.AddEdge(node.ID, b.loops[len(b.loops)-1].headerID, EdgeKindBackEdge)
	return nil
}

// connect wires every pending edge of the frontier to the target, keeping
// each edge's own kind.
func (b *Builder) connect(frontier []pending, targetID string) {
	for _, p := range frontier {
		b.graph.AddEdge(p.id, targetID, p.kind)
	}
}

// connectAs wires the frontier to the target using armKind for pending
// normal edges. Conditional edges left on the frontier keep their kind.
func (b *Builder) connectAs(frontier []pending, targetID string, armKind EdgeKind) {
	for _, p := range frontier {
		kind := p.kind
		if kind == EdgeKindNormal {
			kind = armKind
		}
		b.graph.AddEdge(p.id, targetID, kind)
	}
}

// close wires any remaining node without outgoing edges to the exit node so
// every path terminates.
func (b *Builder) close() {
	ids := make([]string, 0, len(b.graph.Nodes))
	for id := range b.graph.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if id == b.graph.ExitID {
			continue
		}
		if b.graph.OutDegree(id) == 0 {
			b.graph.AddEdge(id, b.graph.ExitID, EdgeKindNormal)
		}
	}
}

func (b *Builder) newNode(kind NodeKind, label string, line int) *Node {
	b.counter++
	node := &Node{
		ID:    fmt.Sprintf("%s_node_%d", b.graph.FunctionName, b.counter),
		Kind:  kind,
		Label: label,
		Line:  line,
	}
	b.graph.AddNode(node)
	return node
}

// label normalizes whitespace and truncates to the configured limit.
func (b *Builder) label(text string) string {
	max := b.LabelMaxLen
	if max <= 0 {
		max = DefaultLabelMaxLen
	}
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) <= max {
		return normalized
	}
	return string(runes[:max-3]) + "..."
}

func setAttr(n *Node, key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// bodyStatements returns the statements forming the body of a compound
// construct. Brace-less bodies fall back to the direct children minus the
// clauses owned by the construct itself.
func bodyStatements(stmt *syntax.Node) []*syntax.Node {
	if body := stmt.ChildByKind("compound_statement"); body != nil {
		return body.Children
	}
	var out []*syntax.Node
	for _, c := range stmt.Children {
		switch c.Kind {
		case "condition_clause", "else_clause":
		default:
			out = append(out, c)
		}
	}
	return out
}

// conditionText extracts the condition of an if/while/switch without its
// surrounding parentheses.
func conditionText(stmt *syntax.Node) string {
	if c := stmt.ChildByKind("condition_clause"); c != nil {
		text := strings.TrimSpace(c.Text)
		text = strings.TrimPrefix(text, "(")
		text = strings.TrimSuffix(text, ")")
		return strings.TrimSpace(text)
	}
	return ""
}

// header returns the loop header text up to the opening brace.
func header(stmt *syntax.Node) string {
	text := stmt.Text
	if idx := strings.Index(text, "{"); idx > 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// collectCalls gathers every call made inside the statement subtree, in
// source order.
func collectCalls(n *syntax.Node) []string {
	var calls []string
	var walk func(*syntax.Node)
	walk = func(m *syntax.Node) {
		if m.Kind == "call_expression" {
			if name := calleeName(m.Text); name != "" {
				calls = append(calls, name)
			}
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(n)
	return calls
}

// collectClauseCalls gathers calls from a construct's condition clause only,
// so body calls are not attributed to the header node.
func collectClauseCalls(stmt *syntax.Node) []string {
	if c := stmt.ChildByKind("condition_clause"); c != nil {
		return collectCalls(c)
	}
	return nil
}

// calleeName extracts the callee expression of a call from its source text.
func calleeName(text string) string {
	idx := strings.Index(text, "(")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(text[:idx])
}

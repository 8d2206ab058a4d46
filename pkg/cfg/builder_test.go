package cfg

import (
	"context"
	"strings"
	"testing"

	"github.com/cppflow/cppflow/pkg/syntax"
)

func buildCFG(t *testing.T, source, functionName string) *Graph {
	t.Helper()
	root, err := syntax.NewParser().Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fn := syntax.FindFunction(root, functionName)
	if fn == nil {
		t.Fatalf("function %s not found", functionName)
	}
	return NewBuilder().Build(fn, functionName)
}

func findNodes(g *Graph, kind NodeKind) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func hasEdge(g *Graph, source, target string, kind EdgeKind) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuildIfWithEarlyReturn(t *testing.T) {
	source := `
int clamp(int x) {
    if (x < 0) {
        return 0;
    }
    x = x + 1;
    return x;
}
`
	g := buildCFG(t, source, "clamp")

	branches := findNodes(g, NodeKindBranch)
	if len(branches) != 1 {
		t.Fatalf("branch count = %d, want 1", len(branches))
	}
	branch := branches[0]

	returns := findNodes(g, NodeKindReturn)
	if len(returns) != 2 {
		t.Fatalf("return count = %d, want 2", len(returns))
	}

	// true edge from the branch reaches the early return
	var earlyReturn *Node
	for _, r := range returns {
		if hasEdge(g, branch.ID, r.ID, EdgeKindTrue) {
			earlyReturn = r
		}
	}
	if earlyReturn == nil {
		t.Fatal("no true edge from branch to a return node")
	}
	if !hasEdge(g, earlyReturn.ID, g.ExitID, EdgeKindReturn) {
		t.Error("early return is not wired to exit with a return edge")
	}

	// false edge from the branch reaches the synthesized merge node
	mergeID := branch.Attrs["merge"]
	if mergeID == "" {
		t.Fatal("branch node has no merge attribute")
	}
	if mergeID != branch.ID+"_merge" {
		t.Errorf("merge id = %q, want %q", mergeID, branch.ID+"_merge")
	}
	if !hasEdge(g, branch.ID, mergeID, EdgeKindFalse) {
		t.Error("no false edge from branch to merge")
	}

	// the merge flows into the statement after the if
	found := false
	for _, e := range g.Successors(mergeID) {
		if g.Nodes[e.Target].Kind == NodeKindStatement && e.Kind == EdgeKindNormal {
			found = true
		}
	}
	if !found {
		t.Error("merge node does not continue into the following statement")
	}
}

func TestBuildIfElse(t *testing.T) {
	source := `
int pick(int x) {
    int r;
    if (x > 0) {
        r = 1;
    } else {
        r = 2;
    }
    return r;
}
`
	g := buildCFG(t, source, "pick")

	branches := findNodes(g, NodeKindBranch)
	if len(branches) != 1 {
		t.Fatalf("branch count = %d, want 1", len(branches))
	}
	branch := branches[0]
	mergeID := branch.Attrs["merge"]
	if mergeID == "" {
		t.Fatal("branch node has no merge attribute")
	}

	// both arms rejoin at the merge with their arm kinds
	trueToMerge, falseToMerge := false, false
	for _, e := range g.Predecessors(mergeID) {
		switch e.Kind {
		case EdgeKindTrue:
			trueToMerge = true
		case EdgeKindFalse:
			falseToMerge = true
		}
	}
	if !trueToMerge {
		t.Error("then arm does not reach merge with a true edge")
	}
	if !falseToMerge {
		t.Error("else arm does not reach merge with a false edge")
	}
}

func TestBuildLoop(t *testing.T) {
	source := `
int sum(int n) {
    int total = 0;
    for (int i = 0; i < n; i++) {
        total += i;
    }
    return total;
}
`
	g := buildCFG(t, source, "sum")

	loops := findNodes(g, NodeKindLoop)
	if len(loops) != 1 {
		t.Fatalf("loop count = %d, want 1", len(loops))
	}
	loop := loops[0]

	exitID := loop.Attrs["exit"]
	if exitID != loop.ID+"_exit" {
		t.Errorf("loop exit id = %q, want %q", exitID, loop.ID+"_exit")
	}
	if !hasEdge(g, loop.ID, exitID, EdgeKindLoopExit) {
		t.Error("no loop_exit edge from loop header to synthesized exit")
	}

	// loop body terminal goes back to the header
	backEdge := false
	for _, e := range g.Predecessors(loop.ID) {
		if e.Kind == EdgeKindBackEdge {
			backEdge = true
		}
	}
	if !backEdge {
		t.Error("no back edge to loop header")
	}

	// true edge enters the body
	bodyEntered := false
	for _, e := range g.Successors(loop.ID) {
		if e.Kind == EdgeKindTrue {
			bodyEntered = true
		}
	}
	if !bodyEntered {
		t.Error("no true edge from loop header into body")
	}
}

func TestBuildWhileWithBreakContinue(t *testing.T) {
	source := `
int scan(int n) {
    int i = 0;
    while (i < n) {
        i++;
        if (i == 3) {
            continue;
        }
        if (i > 10) {
            break;
        }
    }
    return i;
}
`
	g := buildCFG(t, source, "scan")

	loops := findNodes(g, NodeKindLoop)
	if len(loops) != 1 {
		t.Fatalf("loop count = %d, want 1", len(loops))
	}
	loop := loops[0]
	exitID := loop.Attrs["exit"]

	breakReachesExit := false
	for _, e := range g.Predecessors(exitID) {
		if g.Nodes[e.Source].Label == "break" {
			breakReachesExit = true
		}
	}
	if !breakReachesExit {
		t.Error("break does not reach the loop exit")
	}

	continueBackEdge := false
	for _, e := range g.Predecessors(loop.ID) {
		if e.Kind == EdgeKindBackEdge && g.Nodes[e.Source].Label == "continue" {
			continueBackEdge = true
		}
	}
	if !continueBackEdge {
		t.Error("continue does not produce a back edge to the header")
	}
}

func TestBuildEmptyBody(t *testing.T) {
	source := `void noop() {}`
	g := buildCFG(t, source, "noop")

	if len(g.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2 (entry and exit)", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(g.Edges))
	}
	if !hasEdge(g, g.EntryID, g.ExitID, EdgeKindNormal) {
		t.Error("empty body should produce a single normal entry->exit edge")
	}
}

func TestSingleEntryExitAndClosure(t *testing.T) {
	source := `
int branchy(int x) {
    if (x > 0) {
        x = x * 2;
    }
    while (x > 100) {
        x = x - 1;
    }
    return x;
}
`
	g := buildCFG(t, source, "branchy")

	entries := findNodes(g, NodeKindEntry)
	exits := findNodes(g, NodeKindExit)
	if len(entries) != 1 || len(exits) != 1 {
		t.Fatalf("entries = %d, exits = %d, want 1 each", len(entries), len(exits))
	}

	// every node other than exit must have at least one outgoing edge
	for id := range g.Nodes {
		if id == g.ExitID {
			continue
		}
		if g.OutDegree(id) == 0 {
			t.Errorf("node %s has no outgoing edges after closure", id)
		}
	}

	// entry has no predecessors
	if len(g.Predecessors(g.EntryID)) != 0 {
		t.Error("entry node has predecessors")
	}
}

func TestComplexity(t *testing.T) {
	source := `
int classify(int x) {
    if (x < 0) {
        return -1;
    }
    for (int i = 0; i < x; i++) {
        if (i == 7) {
            return 7;
        }
    }
    return 0;
}
`
	g := buildCFG(t, source, "classify")

	// two branches and one loop: 1 + 3
	if got := g.Complexity(); got != 4 {
		t.Errorf("Complexity() = %d, want 4", got)
	}
}

func TestCallTagging(t *testing.T) {
	source := `
int compute(int x) {
    int y = helper(x);
    return finish(y);
}
`
	g := buildCFG(t, source, "compute")

	var tagged []string
	for _, n := range g.Nodes {
		tagged = append(tagged, n.Calls...)
	}

	want := map[string]bool{"helper": false, "finish": false}
	for _, call := range tagged {
		if _, ok := want[call]; ok {
			want[call] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("call %q not tagged on any node", name)
		}
	}
}

func TestLabelTruncation(t *testing.T) {
	b := NewBuilder()

	short := b.label("int x = 1;")
	if short != "int x = 1;" {
		t.Errorf("short label altered: %q", short)
	}

	long := "int extremely_long_variable_name = some_function_with_a_long_name(argument_one, argument_two);"
	got := b.label(long)
	if len([]rune(got)) != DefaultLabelMaxLen {
		t.Errorf("truncated label length = %d, want %d", len([]rune(got)), DefaultLabelMaxLen)
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("truncated label does not end with ellipsis: %q", got)
	}
}

func TestAddEdgeDeduplicates(t *testing.T) {
	g := NewGraph("f")
	g.AddNode(&Node{ID: "a", Kind: NodeKindStatement})
	g.AddNode(&Node{ID: "b", Kind: NodeKindStatement})

	g.AddEdge("a", "b", EdgeKindNormal)
	g.AddEdge("a", "b", EdgeKindNormal)
	g.AddEdge("a", "b", EdgeKindTrue)

	if len(g.Edges) != 2 {
		t.Errorf("edge count = %d, want 2 (duplicate collapsed, distinct kind kept)", len(g.Edges))
	}
}

func TestDeadCodeAfterReturn(t *testing.T) {
	source := `
int f(int x) {
    return 0;
    int y = 1;
}
`
	g := buildCFG(t, source, "f")

	for _, n := range g.Nodes {
		if n.Kind == NodeKindStatement && n.Label == "int y = 1;" {
			t.Error("statement after return emitted a node")
		}
	}

	// every node is reachable from entry
	reached := map[string]bool{g.EntryID: true}
	stack := []string{g.EntryID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Successors(id) {
			if !reached[e.Target] {
				reached[e.Target] = true
				stack = append(stack, e.Target)
			}
		}
	}
	for id := range g.Nodes {
		if !reached[id] {
			t.Errorf("node %s is not reachable from entry", id)
		}
	}
}

func TestNodeIDsCarryFunctionName(t *testing.T) {
	source := `
int first(int x) { int a = x; return a; }
int second(int x) { int b = x; return b; }
`
	f := buildCFG(t, source, "first")
	s := buildCFG(t, source, "second")

	if f.EntryID != "first_entry" || f.ExitID != "first_exit" {
		t.Errorf("entry/exit ids = %q %q", f.EntryID, f.ExitID)
	}
	for id := range f.Nodes {
		if !strings.HasPrefix(id, "first_") {
			t.Errorf("node id %q lacks the function name prefix", id)
		}
		if _, clash := s.Nodes[id]; clash {
			t.Errorf("node id %q reused across functions", id)
		}
	}
}

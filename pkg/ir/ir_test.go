package ir

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cppflow/cppflow/pkg/cfg"
	"github.com/cppflow/cppflow/pkg/modules"
	"github.com/cppflow/cppflow/pkg/syntax"
)

func recoverSource(t *testing.T, source, functionName string) []*ControlBlock {
	t.Helper()
	parser := syntax.NewParser()
	root, err := parser.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn := syntax.FindFunction(root, functionName)
	if fn == nil {
		t.Fatalf("function %q not found", functionName)
	}
	return RecoverBlocks(cfg.NewBuilder().Build(fn, functionName))
}

func kinds(blocks []*ControlBlock) []BlockKind {
	out := make([]BlockKind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}

func TestRecoverLinearBody(t *testing.T) {
	source := `
void run() {
    init();
    step();
    return;
}
`
	blocks := recoverSource(t, source, "run")
	want := []BlockKind{BlockSequence, BlockSequence, BlockReturn}
	got := kinds(blocks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRecoverIfElse(t *testing.T) {
	source := `
int clamp(int x) {
    if (x > 10) {
        x = 10;
    } else {
        x = 0;
    }
    return x;
}
`
	blocks := recoverSource(t, source, "clamp")
	if len(blocks) != 2 {
		t.Fatalf("got %d top-level blocks, want 2", len(blocks))
	}
	ifBlock := blocks[0]
	if ifBlock.Kind != BlockIf {
		t.Fatalf("first block kind = %s, want if", ifBlock.Kind)
	}
	if ifBlock.Condition != "x > 10" {
		t.Errorf("condition = %q, want %q", ifBlock.Condition, "x > 10")
	}
	if len(ifBlock.Children) != 1 || ifBlock.Children[0].Kind != BlockSequence {
		t.Errorf("then arm = %v, want one statement", kinds(ifBlock.Children))
	}
	if len(ifBlock.ElseChildren) != 1 || ifBlock.ElseChildren[0].Kind != BlockSequence {
		t.Errorf("else arm = %v, want one statement", kinds(ifBlock.ElseChildren))
	}
	if blocks[1].Kind != BlockReturn {
		t.Errorf("second block kind = %s, want return", blocks[1].Kind)
	}
}

func TestRecoverEarlyReturn(t *testing.T) {
	source := `
int guard(int x) {
    if (x < 0) {
        return -1;
    }
    finish();
    return x;
}
`
	blocks := recoverSource(t, source, "guard")
	if len(blocks) != 3 {
		t.Fatalf("got %d top-level blocks, want 3: %v", len(blocks), kinds(blocks))
	}
	ifBlock := blocks[0]
	if len(ifBlock.Children) != 1 || ifBlock.Children[0].Kind != BlockReturn {
		t.Errorf("then arm = %v, want one return", kinds(ifBlock.Children))
	}
	if len(ifBlock.ElseChildren) != 0 {
		t.Errorf("else arm = %v, want empty", kinds(ifBlock.ElseChildren))
	}
	if blocks[1].Kind != BlockSequence || blocks[2].Kind != BlockReturn {
		t.Errorf("continuation = %v, want [statement return]", kinds(blocks[1:]))
	}
}

func TestRecoverLoopBody(t *testing.T) {
	source := `
void sum(int n) {
    int total = 0;
    while (n > 0) {
        total += n;
        n--;
    }
    report(total);
}
`
	blocks := recoverSource(t, source, "sum")
	if len(blocks) != 3 {
		t.Fatalf("got %d top-level blocks, want 3: %v", len(blocks), kinds(blocks))
	}
	loop := blocks[1]
	if loop.Kind != BlockLoop {
		t.Fatalf("middle block kind = %s, want loop", loop.Kind)
	}
	if loop.Condition != "n > 0" {
		t.Errorf("condition = %q, want %q", loop.Condition, "n > 0")
	}
	if len(loop.Children) != 2 {
		t.Errorf("loop body = %v, want two statements", kinds(loop.Children))
	}
	if blocks[2].Kind != BlockSequence {
		t.Errorf("continuation kind = %s, want statement", blocks[2].Kind)
	}
}

func TestRecoverNestedIfInLoop(t *testing.T) {
	source := `
void filter(int n) {
    for (int i = 0; i < n; i++) {
        if (skip(i)) {
            continue;
        }
        emit(i);
    }
}
`
	blocks := recoverSource(t, source, "filter")
	if len(blocks) != 1 || blocks[0].Kind != BlockLoop {
		t.Fatalf("got %v, want single loop", kinds(blocks))
	}
	body := blocks[0].Children
	if len(body) != 2 || body[0].Kind != BlockIf {
		t.Fatalf("loop body = %v, want [if statement]", kinds(body))
	}
	if len(body[0].Children) != 1 || body[0].Children[0].Label != "continue" {
		t.Errorf("if arm = %v, want the continue statement", kinds(body[0].Children))
	}
}

func TestRecoverOmitsMergeNodes(t *testing.T) {
	source := `
void pick(int x) {
    if (x) {
        a();
    }
    b();
}
`
	blocks := recoverSource(t, source, "pick")
	var check func([]*ControlBlock)
	check = func(bs []*ControlBlock) {
		for _, b := range bs {
			if b.Label == "merge" || b.Label == "loop exit" {
				t.Errorf("synthesized node surfaced as block %s", b.ID)
			}
			check(b.Children)
			check(b.ElseChildren)
		}
	}
	check(blocks)
}

func TestTransformFunction(t *testing.T) {
	source := `
namespace app {
int compute(int x, int y) {
    if (x > y) {
        return x;
    }
    return y;
}
}
`
	parser := syntax.NewParser()
	root, err := parser.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	decls := syntax.CollectFunctions(root)
	if len(decls) != 1 {
		t.Fatalf("got %d functions, want 1", len(decls))
	}
	decl := decls[0]
	g := cfg.NewBuilder().Build(decl.Node, decl.Info.Name)

	tr := NewTransformer([]string{"main"})
	fn := tr.TransformFunction("src/compute.cpp", decl, g)

	if fn.Name != "app::compute" {
		t.Errorf("name = %q, want %q", fn.Name, "app::compute")
	}
	if fn.Signature != "int compute(int x, int y)" {
		t.Errorf("signature = %q", fn.Signature)
	}
	if fn.Namespace != "app" {
		t.Errorf("namespace = %q, want app", fn.Namespace)
	}
	if len(fn.Inputs) != 2 {
		t.Errorf("inputs = %v, want 2 params", fn.Inputs)
	}
	if len(fn.Outputs) != 1 || fn.Outputs[0] != "int" {
		t.Errorf("outputs = %v, want [int]", fn.Outputs)
	}
	if fn.Complexity != 2 {
		t.Errorf("complexity = %d, want 2", fn.Complexity)
	}
	if fn.IsEntryPoint {
		t.Error("compute flagged as entry point")
	}
	if len(fn.ControlBlocks) != 1 || fn.ControlBlocks[0].Kind != BlockIf {
		t.Errorf("top-level blocks = %v, want single if", kinds(fn.ControlBlocks))
	}
}

func TestTransformModuleAndProject(t *testing.T) {
	tr := NewTransformer([]string{"main", "Main", "init"})
	funcs := []*FunctionIR{
		{ID: "f1", Name: "main", File: "main.cpp", IsEntryPoint: true},
		{ID: "f2", Name: "core::setup", File: "core/include/setup.h"},
		{ID: "f3", Name: "core::init", File: "core/init.cpp", IsEntryPoint: true},
	}

	coreMod := tr.TransformModule(modules.Module{Name: "core", Files: []string{"core/init.cpp", "core/include/setup.h"}}, funcs[1:])
	if coreMod.ID != "module_core" || coreMod.Path != "core" {
		t.Errorf("module identity = %q %q, want module_core core", coreMod.ID, coreMod.Path)
	}
	if len(coreMod.PublicAPI) != 1 || coreMod.PublicAPI[0] != "f2" {
		t.Errorf("public api = %v, want [f2]", coreMod.PublicAPI)
	}
	if len(coreMod.PrivateAPI) != 1 || coreMod.PrivateAPI[0] != "f3" {
		t.Errorf("private api = %v, want [f3]", coreMod.PrivateAPI)
	}
	if len(coreMod.EntryPoints) != 1 || coreMod.EntryPoints[0] != "f3" {
		t.Errorf("entry points = %v, want [f3]", coreMod.EntryPoints)
	}

	rootMod := tr.TransformModule(modules.Module{Name: "root", Files: []string{"main.cpp"}}, funcs[:1])
	if rootMod.Path != "." {
		t.Errorf("root module path = %q, want .", rootMod.Path)
	}
	project := tr.TransformProject("demo", "/src/demo", []*ModuleIR{coreMod, rootMod}, funcs)

	if project.ID != "project_demo" || project.RootPath != "/src/demo" {
		t.Errorf("project identity = %q %q", project.ID, project.RootPath)
	}
	if len(project.Modules) != 2 || project.Modules[0] != "module_core" {
		t.Errorf("modules = %v, want module ids", project.Modules)
	}
	if len(project.MainFlows) != 2 {
		t.Fatalf("main flows = %+v, want 2 entries", project.MainFlows)
	}
	if project.MainFlows[0].Module != "module_core" || project.MainFlows[0].EntryPoints[0] != "f3" {
		t.Errorf("first flow = %+v", project.MainFlows[0])
	}
	want := []string{"f3", "f1"}
	if len(project.StartupSequence) != 2 || project.StartupSequence[0] != want[0] || project.StartupSequence[1] != want[1] {
		t.Errorf("startup sequence = %v, want function ids %v", project.StartupSequence, want)
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewSerializer(dir)

	funcs := []*FunctionIR{
		{ID: "main_1", Name: "main", Signature: "int main()", File: "main.cpp", Line: 1, Complexity: 1},
		{ID: "run_2", Name: "app::run", Signature: "void run()", File: "app/run.cpp", Line: 3, Complexity: 2},
	}
	mods := []*ModuleIR{
		{ID: "module_app", Name: "app", Path: "app", Files: []string{"app/run.cpp"}, Functions: []string{"run_2"}},
		{ID: "module_root", Name: "root", Path: ".", Files: []string{"main.cpp"}, Functions: []string{"main_1"}},
	}
	project := &ProjectIR{ID: "project_demo", Name: "demo", RootPath: "/src/demo", Modules: []string{"module_app", "module_root"}, FunctionCount: 2, ModuleCount: 2}

	if err := s.WriteProject(project, mods, funcs); err != nil {
		t.Fatalf("write: %v", err)
	}

	gotFuncs, skipped, err := s.LoadFunctions()
	if err != nil {
		t.Fatalf("load functions: %v", err)
	}
	if skipped != 0 || len(gotFuncs) != 2 {
		t.Fatalf("got %d functions (%d skipped), want 2", len(gotFuncs), skipped)
	}
	if gotFuncs[1].Name != "app::run" {
		t.Errorf("function name = %q", gotFuncs[1].Name)
	}

	gotMods, skipped, err := s.LoadModules()
	if err != nil {
		t.Fatalf("load modules: %v", err)
	}
	if skipped != 0 || len(gotMods) != 2 {
		t.Fatalf("got %d modules (%d skipped), want 2", len(gotMods), skipped)
	}

	gotProject, err := s.LoadProject()
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if gotProject.Name != "demo" || gotProject.FunctionCount != 2 {
		t.Errorf("project = %+v", gotProject)
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	dir := t.TempDir()
	entries := []json.RawMessage{
		json.RawMessage(`{"id":"ok_1","name":"main","signature":"int main()","file":"main.cpp","line":1,"control_blocks":null,"complexity":1}`),
		json.RawMessage(`{"name":"missing id"}`),
		json.RawMessage(`"not an object"`),
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "functions.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	funcs, skipped, err := NewSerializer(dir).LoadFunctions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(funcs) != 1 || funcs[0].ID != "ok_1" {
		t.Fatalf("got %d functions, want the single valid entry", len(funcs))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestCreateUniqueID(t *testing.T) {
	a := CreateUniqueID("a.cpp", "app::run", "void run()")
	b := CreateUniqueID("a.cpp", "app::run", "void run()")
	c := CreateUniqueID("a.cpp", "app::run", "void run(int)")
	if a != b {
		t.Errorf("same inputs produced different ids: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different signatures produced the same id")
	}
	if got := sanitizeName("app::Engine::run"); got != "app_Engine_run" {
		t.Errorf("sanitizeName = %q", got)
	}
	if got := sanitizeName("operator=="); got != "operator" {
		t.Errorf("sanitizeName operator = %q", got)
	}
}

func TestBlockIDsReferenceCFGNodes(t *testing.T) {
	source := `
void work(int n) {
    setup();
    if (n > 0) {
        step();
    }
}
`
	parser := syntax.NewParser()
	root, err := parser.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn := syntax.FindFunction(root, "work")
	if fn == nil {
		t.Fatal("function work not found")
	}
	g := cfg.NewBuilder().Build(fn, "work")
	blocks := RecoverBlocks(g)

	var check func([]*ControlBlock)
	check = func(bs []*ControlBlock) {
		for _, b := range bs {
			if _, ok := g.Nodes[b.ID]; !ok {
				t.Errorf("block id %q does not name a CFG node", b.ID)
			}
			check(b.Children)
			check(b.ElseChildren)
		}
	}
	check(blocks)

	if len(blocks) == 0 {
		t.Fatal("no blocks recovered")
	}
	data, err := json.Marshal(blocks[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"block_type":"sequence"`) {
		t.Errorf("plain block serialized as %s, want block_type sequence", data)
	}
}

package syntax

import (
	"context"
	"testing"
)

const sampleSource = `
#include <vector>
#include "util.h"

namespace math {

class Calculator {
public:
    virtual int add(int a, int b);
    static int zero();
};

int Calculator::add(int a, int b) {
    if (a > b) {
        return a + b;
    }
    return b;
}

int helper(int x) {
    return x * 2;
}

} // namespace math

int main() {
    math::Calculator c;
    return 0;
}
`

func parseSample(t *testing.T) *Node {
	t.Helper()
	root, err := NewParser().Parse(context.Background(), []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return root
}

func TestParseCollectsFunctions(t *testing.T) {
	root := parseSample(t)
	decls := CollectFunctions(root)

	byName := map[string]FunctionDecl{}
	for _, d := range decls {
		byName[d.Info.Name] = d
	}

	add, ok := byName["add"]
	if !ok {
		t.Fatalf("function add not found, got %d decls", len(decls))
	}
	if add.Namespace != "math" {
		t.Errorf("add namespace = %q, want math", add.Namespace)
	}
	if len(add.Info.Params) != 2 {
		t.Errorf("add params = %d, want 2", len(add.Info.Params))
	}
	if add.Info.ReturnType != "int" {
		t.Errorf("add return type = %q, want int", add.Info.ReturnType)
	}

	helper, ok := byName["helper"]
	if !ok {
		t.Fatal("function helper not found")
	}
	if helper.Namespace != "math" {
		t.Errorf("helper namespace = %q, want math", helper.Namespace)
	}
	if helper.Class != "" {
		t.Errorf("helper class = %q, want empty", helper.Class)
	}

	if add.Class != "Calculator" {
		t.Errorf("add class = %q, want Calculator", add.Class)
	}

	if _, ok := byName["main"]; !ok {
		t.Fatal("function main not found")
	}
}

func TestOutOfClassDefinitionScope(t *testing.T) {
	source := `
void core::Engine::run() {
    step();
}
`
	root, err := NewParser().Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	decls := CollectFunctions(root)
	if len(decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(decls))
	}
	d := decls[0]
	if d.Info.Name != "run" {
		t.Errorf("name = %q, want run", d.Info.Name)
	}
	if d.Class != "Engine" {
		t.Errorf("class = %q, want Engine", d.Class)
	}
	if d.Namespace != "core" {
		t.Errorf("namespace = %q, want core", d.Namespace)
	}
}

func TestParseClassInfo(t *testing.T) {
	root := parseSample(t)

	var class *ClassInfo
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Class != nil && n.Class.Name == "Calculator" {
			class = n.Class
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	if class == nil {
		t.Fatal("class Calculator not found")
	}
}

func TestFindFunction(t *testing.T) {
	root := parseSample(t)

	fn := FindFunction(root, "add")
	if fn == nil {
		t.Fatal("FindFunction(add) returned nil")
	}
	if fn.Kind != "function_definition" {
		t.Errorf("kind = %q, want function_definition", fn.Kind)
	}
	if fn.StartLine() < 1 {
		t.Errorf("StartLine = %d, want >= 1", fn.StartLine())
	}

	if FindFunction(root, "missing") != nil {
		t.Error("FindFunction(missing) should return nil")
	}
}

func TestParsePreservesIncludes(t *testing.T) {
	root := parseSample(t)

	count := 0
	for _, c := range root.Children {
		if c.Kind == "preproc_include" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("preproc_include count = %d, want 2", count)
	}
}

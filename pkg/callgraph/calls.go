package callgraph

import (
	"strings"

	"github.com/cppflow/cppflow/pkg/syntax"
)

// RawCall is a call site as found in a function body, before resolution.
type RawCall struct {
	Callee string   // Source text of the callee expression
	Kind   CallKind // Direct or method, from the call-site shape
	Line   int      // One-based source line
}

// ExtractCalls walks a function subtree and returns every call site in
// source order. Member access calls (obj.f, obj->f, this->f) are tagged
// as method calls; everything else is direct.
func ExtractCalls(fn *syntax.Node) []RawCall {
	var calls []RawCall
	var walk func(*syntax.Node)
	walk = func(n *syntax.Node) {
		if n.Kind == "call_expression" {
			if callee := calleeExpr(n.Text); callee != "" {
				calls = append(calls, RawCall{
					Callee: callee,
					Kind:   classifyCall(callee),
					Line:   n.StartLine(),
				})
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(fn)
	return calls
}

// calleeExpr extracts the callee expression from call source text.
func calleeExpr(text string) string {
	idx := strings.Index(text, "(")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(text[:idx])
}

// classifyCall tags a callee expression as a method or direct call.
func classifyCall(callee string) CallKind {
	if strings.Contains(callee, ".") || strings.Contains(callee, "->") {
		return CallKindMethod
	}
	return CallKindDirect
}

// Package syntax defines the generic syntax tree consumed by the analysis
// pipeline. Nodes carry a kind tag, a source span, the decoded text slice,
// and ordered children, plus optional decoded summaries for functions,
// classes and namespaces. Trees are read-only after construction.
package syntax

import "strings"

// Point is a zero-based row/column position in the source.
type Point struct {
	Row    int `json:"row" msgpack:"row"`
	Column int `json:"column" msgpack:"column"`
}

// Span locates a node in the source file.
type Span struct {
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`
	Start     Point  `json:"start_point" msgpack:"start_point"`
	End       Point  `json:"end_point" msgpack:"end_point"`
}

// Param is a single function parameter.
type Param struct {
	Type string `json:"type" msgpack:"type"`
	Name string `json:"name" msgpack:"name"`
}

// FunctionInfo is the decoded summary attached to function_definition nodes.
// Scope holds the qualifier of an out-of-class definition like
// Engine::run, without the trailing name.
type FunctionInfo struct {
	Name       string  `json:"name" msgpack:"name"`
	Scope      string  `json:"scope,omitempty" msgpack:"scope"`
	ReturnType string  `json:"return_type" msgpack:"return_type"`
	Params     []Param `json:"parameters" msgpack:"parameters"`
	IsVirtual  bool    `json:"is_virtual" msgpack:"is_virtual"`
	IsStatic   bool    `json:"is_static" msgpack:"is_static"`
}

// ClassInfo is the decoded summary attached to class_specifier nodes.
type ClassInfo struct {
	Name  string   `json:"name" msgpack:"name"`
	Bases []string `json:"bases,omitempty" msgpack:"bases"`
}

// NamespaceInfo is the decoded summary attached to namespace_definition nodes.
type NamespaceInfo struct {
	Name string `json:"name" msgpack:"name"`
}

// Node is a single node of the generic syntax tree.
type Node struct {
	Kind     string  `json:"kind" msgpack:"kind"`
	Span     Span    `json:"span" msgpack:"span"`
	Text     string  `json:"text" msgpack:"text"`
	Children []*Node `json:"children,omitempty" msgpack:"children"`

	Function  *FunctionInfo  `json:"function,omitempty" msgpack:"function"`
	Class     *ClassInfo     `json:"class,omitempty" msgpack:"class"`
	Namespace *NamespaceInfo `json:"namespace,omitempty" msgpack:"namespace"`
}

// StartLine is the one-based line the node starts on.
func (n *Node) StartLine() int {
	return n.Span.Start.Row + 1
}

// ChildByKind returns the first direct child with the given kind, or nil.
func (n *Node) ChildByKind(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// FindFunction locates the function_definition node for the given bare
// function name in the subtree rooted at n. Returns nil if not present.
func FindFunction(n *Node, name string) *Node {
	if n == nil {
		return nil
	}
	if n.Function != nil && n.Function.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := FindFunction(c, name); found != nil {
			return found
		}
	}
	return nil
}

// FunctionDecl pairs a function node with the namespace and class context
// it was declared in.
type FunctionDecl struct {
	Node      *Node
	Info      *FunctionInfo
	Namespace string
	Class     string
}

// CollectFunctions walks the tree and returns every function definition
// together with its enclosing namespace and class names.
func CollectFunctions(root *Node) []FunctionDecl {
	var decls []FunctionDecl
	collectFunctions(root, "", "", &decls)
	return decls
}

func collectFunctions(n *Node, namespace, class string, decls *[]FunctionDecl) {
	if n == nil {
		return
	}
	if n.Namespace != nil && n.Namespace.Name != "" {
		namespace = n.Namespace.Name
	}
	if n.Class != nil && n.Class.Name != "" {
		class = n.Class.Name
	}
	if n.Function != nil && n.Function.Name != "" {
		ns, cls := namespace, class
		// out-of-class definitions carry their class in the scope
		// qualifier instead of the tree structure
		if cls == "" && n.Function.Scope != "" {
			segments := strings.Split(n.Function.Scope, "::")
			cls = segments[len(segments)-1]
			if ns == "" && len(segments) > 1 {
				ns = strings.Join(segments[:len(segments)-1], "::")
			}
		}
		*decls = append(*decls, FunctionDecl{
			Node:      n,
			Info:      n.Function,
			Namespace: ns,
			Class:     cls,
		})
	}
	for _, c := range n.Children {
		collectFunctions(c, namespace, class, decls)
	}
}

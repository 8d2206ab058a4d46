package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// kinds of raw tree-sitter nodes that are carried into the generic tree.
// Everything else is structural noise for this pipeline and is flattened
// into its parent.
var keptKinds = map[string]bool{
	"translation_unit":       true,
	"namespace_definition":   true,
	"class_specifier":        true,
	"struct_specifier":       true,
	"function_definition":    true,
	"compound_statement":     true,
	"declaration":            true,
	"expression_statement":   true,
	"if_statement":           true,
	"else_clause":            true,
	"for_statement":          true,
	"for_range_loop":         true,
	"while_statement":        true,
	"do_statement":           true,
	"switch_statement":       true,
	"case_statement":         true,
	"return_statement":       true,
	"break_statement":        true,
	"continue_statement":     true,
	"condition_clause":       true,
	"call_expression":        true,
	"field_expression":       true,
	"preproc_include":        true,
	"field_declaration_list": true,
	"declaration_list":       true,
	"template_declaration":   true,
	"access_specifier":       true,
	"labeled_statement":      true,
	"try_statement":          true,
	"catch_clause":           true,
	"throw_statement":        true,
}

// Parser turns C++ source into the generic syntax tree.
type Parser struct {
	inner *sitter.Parser
}

// NewParser builds a parser with the C++ grammar loaded.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &Parser{inner: p}
}

// Parse parses source and returns the root of the generic tree. The raw
// tree-sitter tree is released before returning; the result holds no cgo
// state.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Node, error) {
	tree, err := p.inner.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()
	root := convert(tree.RootNode(), source)
	if root == nil {
		return nil, fmt.Errorf("parse: empty tree")
	}
	return root, nil
}

func convert(n *sitter.Node, source []byte) *Node {
	node := &Node{
		Kind: n.Type(),
		Span: Span{
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			Start:     Point{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
			End:       Point{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
		},
		Text: nodeText(n, source),
	}
	switch n.Type() {
	case "function_definition":
		node.Function = functionInfo(n, source)
	case "class_specifier", "struct_specifier":
		node.Class = classInfo(n, source)
	case "namespace_definition":
		node.Namespace = namespaceInfo(n, source)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if keptKinds[child.Type()] {
			node.Children = append(node.Children, convert(child, source))
			continue
		}
		// flatten: hoist kept descendants of a skipped node
		hoistKept(child, source, &node.Children)
	}
	return node
}

func hoistKept(n *sitter.Node, source []byte, out *[]*Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if keptKinds[child.Type()] {
			*out = append(*out, convert(child, source))
		} else {
			hoistKept(child, source, out)
		}
	}
}

func nodeText(n *sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

func functionInfo(n *sitter.Node, source []byte) *FunctionInfo {
	info := &FunctionInfo{}
	if t := n.ChildByFieldName("type"); t != nil {
		info.ReturnType = nodeText(t, source)
	}
	decl := n.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl != nil {
		if name := decl.ChildByFieldName("declarator"); name != nil {
			info.Name = nodeText(name, source)
		}
		if params := decl.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				pd := params.NamedChild(i)
				if pd.Type() != "parameter_declaration" {
					continue
				}
				p := Param{}
				if t := pd.ChildByFieldName("type"); t != nil {
					p.Type = nodeText(t, source)
				}
				if d := pd.ChildByFieldName("declarator"); d != nil {
					p.Name = nodeText(d, source)
				}
				info.Params = append(info.Params, p)
			}
		}
	}
	// virtual and static show up as leading specifier children
	for i := 0; i < int(n.ChildCount()); i++ {
		switch nodeText(n.Child(i), source) {
		case "virtual":
			info.IsVirtual = true
		case "static":
			info.IsStatic = true
		}
	}
	// method names like Foo::bar keep only the trailing segment; the
	// qualifier is preserved as the scope
	if idx := strings.LastIndex(info.Name, "::"); idx >= 0 {
		info.Scope = info.Name[:idx]
		info.Name = info.Name[idx+2:]
	}
	return info
}

func classInfo(n *sitter.Node, source []byte) *ClassInfo {
	info := &ClassInfo{}
	if name := n.ChildByFieldName("name"); name != nil {
		info.Name = nodeText(name, source)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "base_class_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			base := child.NamedChild(j)
			switch base.Type() {
			case "type_identifier", "qualified_identifier", "template_type":
				info.Bases = append(info.Bases, nodeText(base, source))
			}
		}
	}
	return info
}

func namespaceInfo(n *sitter.Node, source []byte) *NamespaceInfo {
	info := &NamespaceInfo{}
	if name := n.ChildByFieldName("name"); name != nil {
		info.Name = nodeText(name, source)
	}
	return info
}

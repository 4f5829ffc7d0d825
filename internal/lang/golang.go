package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/gitref/internal/outline"
)

func init() {
	Languages["go"] = &Language{
		Name:         "go",
		Extensions:   []string{".go"},
		lang:         golang.GetLanguage(),
		BuildOutline: goOutline,
	}
}

// goOutline builds a Go file outline. Types are containers for their
// struct fields, interface methods and the methods declared on them in the
// same file.
func goOutline(root *sitter.Node, source []byte) *outline.Node {
	mod := &outline.Node{Kind: outline.Module, Line: 1}
	types := make(map[string]*outline.Node)
	var methods []*sitter.Node

	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		switch decl.Type() {
		case "function_declaration":
			if n := goNamed(decl, outline.Function, source); n != nil {
				mod.Children = append(mod.Children, n)
			}
		case "method_declaration":
			methods = append(methods, decl)
		case "type_declaration":
			for _, spec := range goSpecs(decl, "type_spec", "type_alias") {
				n := goTypeSpec(spec, source)
				if n == nil {
					continue
				}
				if _, seen := types[n.Name]; !seen {
					types[n.Name] = n
				}
				mod.Children = append(mod.Children, n)
			}
		case "const_declaration", "var_declaration":
			for _, spec := range goSpecs(decl, "const_spec", "var_spec") {
				mod.Children = append(mod.Children, goBindings(spec, "identifier", source)...)
			}
		}
	}

	// Methods whose receiver type lives in another file have no container
	// here and are not addressable.
	for _, m := range methods {
		parent, ok := types[goFindReceiverType(m, source)]
		if !ok {
			continue
		}
		if n := goNamed(m, outline.Function, source); n != nil {
			parent.Children = append(parent.Children, n)
		}
	}
	return mod
}

func goNamed(node *sitter.Node, kind outline.Kind, source []byte) *outline.Node {
	name := node.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	return definitionNode(kind, NodeText(name, source), node, node, source)
}

// goSpecs collects spec nodes of the given types from a declaration,
// looking through grouped spec lists.
func goSpecs(decl *sitter.Node, types ...string) []*sitter.Node {
	var specs []*sitter.Node
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if goTypeIn(child.Type(), types) {
			specs = append(specs, child)
		} else if strings.HasSuffix(child.Type(), "_list") {
			specs = append(specs, goSpecs(child, types...)...)
		}
	}
	return specs
}

func goTypeIn(t string, types []string) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

func goTypeSpec(spec *sitter.Node, source []byte) *outline.Node {
	n := goNamed(spec, outline.Class, source)
	if n == nil {
		return nil
	}
	typ := spec.ChildByFieldName("type")
	if typ == nil {
		return n
	}
	switch typ.Type() {
	case "struct_type":
		for i := 0; i < int(typ.NamedChildCount()); i++ {
			list := typ.NamedChild(i)
			if list.Type() != "field_declaration_list" {
				continue
			}
			for j := 0; j < int(list.NamedChildCount()); j++ {
				field := list.NamedChild(j)
				if field.Type() != "field_declaration" {
					continue
				}
				fields := goBindings(field, "field_identifier", source)
				if len(fields) == 0 {
					fields = goEmbeddedField(field, source)
				}
				n.Children = append(n.Children, fields...)
			}
		}
	case "interface_type":
		for i := 0; i < int(typ.NamedChildCount()); i++ {
			elem := typ.NamedChild(i)
			if elem.Type() != "method_elem" && elem.Type() != "method_spec" {
				continue
			}
			if m := goNamed(elem, outline.Function, source); m != nil {
				n.Children = append(n.Children, m)
			}
		}
	}
	return n
}

// goBindings returns a binding for every direct child of the given name
// type; in Go specs those are exactly the declared names.
func goBindings(spec *sitter.Node, nameType string, source []byte) []*outline.Node {
	var nodes []*outline.Node
	text := ""
	for i := 0; i < int(spec.NamedChildCount()); i++ {
		child := spec.NamedChild(i)
		if child.Type() != nameType {
			continue
		}
		if text == "" {
			text = Canonical(spec, source)
		}
		nodes = append(nodes, &outline.Node{
			Kind: outline.Binding,
			Name: NodeText(child, source),
			Line: Line(spec),
			Text: text,
		})
	}
	return nodes
}

// goEmbeddedField names an embedded struct field after its type.
func goEmbeddedField(field *sitter.Node, source []byte) []*outline.Node {
	typ := field.ChildByFieldName("type")
	if typ == nil {
		return nil
	}
	name := goTypeName(typ, source)
	if name == "" {
		return nil
	}
	return []*outline.Node{{
		Kind: outline.Binding,
		Name: name,
		Line: Line(field),
		Text: Canonical(field, source),
	}}
}

// goFindReceiverType extracts the receiver type name from a method_declaration node,
// unwrapping pointer and generic receivers.
func goFindReceiverType(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		if typ := param.ChildByFieldName("type"); typ != nil {
			return goTypeName(typ, source)
		}
	}
	return ""
}

func goTypeName(typ *sitter.Node, source []byte) string {
	switch typ.Type() {
	case "type_identifier":
		return NodeText(typ, source)
	case "qualified_type":
		if name := typ.ChildByFieldName("name"); name != nil {
			return NodeText(name, source)
		}
	case "pointer_type", "generic_type":
		for i := 0; i < int(typ.NamedChildCount()); i++ {
			if name := goTypeName(typ.NamedChild(i), source); name != "" {
				return name
			}
		}
	}
	return ""
}

package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/gitref/internal/outline"
)

func init() {
	Languages["python"] = &Language{
		Name:         "python",
		Extensions:   []string{".py", ".pyi"},
		lang:         python.GetLanguage(),
		BuildOutline: pythonOutline,
	}
}

func pythonOutline(root *sitter.Node, source []byte) *outline.Node {
	return &outline.Node{
		Kind:     outline.Module,
		Line:     1,
		Children: pythonScope(root, source),
	}
}

// pythonScope lists the definitions made directly in a module or block.
func pythonScope(scope *sitter.Node, source []byte) []*outline.Node {
	var nodes []*outline.Node
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		stmt := scope.NamedChild(i)
		switch stmt.Type() {
		case "function_definition", "class_definition":
			if n := pythonDefinition(stmt, stmt, source); n != nil {
				nodes = append(nodes, n)
			}
		case "decorated_definition":
			// Decorators are part of the definition's text, but the line is
			// the def/class keyword.
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			if n := pythonDefinition(def, stmt, source); n != nil {
				nodes = append(nodes, n)
			}
		case "expression_statement":
			nodes = append(nodes, pythonBindings(stmt, source)...)
		}
	}
	return nodes
}

func pythonDefinition(def, whole *sitter.Node, source []byte) *outline.Node {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	kind := outline.Function
	if def.Type() == "class_definition" {
		kind = outline.Class
	}
	n := definitionNode(kind, NodeText(nameNode, source), def, whole, source)
	if body := def.ChildByFieldName("body"); body != nil {
		n.Children = pythonScope(body, source)
	}
	return n
}

// pythonBindings returns one binding per name assigned by the statement,
// covering chained (a = b = 1), annotated and unpacking assignments.
func pythonBindings(stmt *sitter.Node, source []byte) []*outline.Node {
	var names []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		if child.Type() == "assignment" {
			names = pythonAssignedNames(child, source, names)
		}
	}
	if len(names) == 0 {
		return nil
	}

	text := Canonical(stmt, source)
	nodes := make([]*outline.Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, &outline.Node{
			Kind: outline.Binding,
			Name: name,
			Line: Line(stmt),
			Text: text,
		})
	}
	return nodes
}

func pythonAssignedNames(assign *sitter.Node, source []byte, names []string) []string {
	if left := assign.ChildByFieldName("left"); left != nil {
		names = pythonTargetNames(left, source, names)
	}
	if right := assign.ChildByFieldName("right"); right != nil && right.Type() == "assignment" {
		names = pythonAssignedNames(right, source, names)
	}
	return names
}

func pythonTargetNames(target *sitter.Node, source []byte, names []string) []string {
	switch target.Type() {
	case "identifier":
		names = append(names, NodeText(target, source))
	case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			names = pythonTargetNames(target.NamedChild(i), source, names)
		}
	}
	return names
}

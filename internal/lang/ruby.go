package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/gitref/internal/outline"
)

func init() {
	Languages["ruby"] = &Language{
		Name:         "ruby",
		Extensions:   []string{".rb"},
		lang:         ruby.GetLanguage(),
		BuildOutline: rubyOutline,
	}
}

func rubyOutline(root *sitter.Node, source []byte) *outline.Node {
	return &outline.Node{
		Kind:     outline.Module,
		Line:     1,
		Children: rubyScope(root, source),
	}
}

// rubyScope lists the definitions made directly in a program, class,
// module or method body.
func rubyScope(scope *sitter.Node, source []byte) []*outline.Node {
	var nodes []*outline.Node
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		stmt := scope.NamedChild(i)
		switch stmt.Type() {
		case "class", "module":
			name := rubyClassName(stmt, source)
			if name == "" {
				continue
			}
			n := definitionNode(outline.Class, name, stmt, stmt, source)
			n.Children = rubyScope(rubyBody(stmt), source)
			nodes = append(nodes, n)
		case "method", "singleton_method":
			nameNode := stmt.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			n := definitionNode(outline.Function, NodeText(nameNode, source), stmt, stmt, source)
			n.Children = rubyScope(rubyBody(stmt), source)
			nodes = append(nodes, n)
		case "assignment":
			left := stmt.ChildByFieldName("left")
			if left == nil || (left.Type() != "constant" && left.Type() != "identifier") {
				continue
			}
			nodes = append(nodes, &outline.Node{
				Kind: outline.Binding,
				Name: NodeText(left, source),
				Line: Line(stmt),
				Text: Canonical(stmt, source),
			})
		}
	}
	return nodes
}

// rubyBody returns the statement container of a class, module or method.
// Older grammars put statements directly under the definition node.
func rubyBody(def *sitter.Node) *sitter.Node {
	if body := def.ChildByFieldName("body"); body != nil {
		return body
	}
	return def
}

// rubyClassName returns the last segment of a class or module name, so
// "class Admin::User" is addressed as "User".
func rubyClassName(node *sitter.Node, source []byte) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	if name.Type() == "scope_resolution" {
		if inner := name.ChildByFieldName("name"); inner != nil {
			return NodeText(inner, source)
		}
	}
	return NodeText(name, source)
}

// Package outline holds the structural outline of a source file and
// resolves dotted paths against it.
package outline

import (
	"fmt"
	"strings"

	"github.com/phobologic/gitref/internal/model"
)

// Kind is the syntactic kind of an outline node.
type Kind int

const (
	Module Kind = iota
	Class
	Function
	Binding
)

func (k Kind) String() string {
	switch k {
	case Module:
		return "module"
	case Class:
		return "class"
	case Function:
		return "function"
	case Binding:
		return "binding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Container reports whether nodes of this kind can hold named children.
func (k Kind) Container() bool {
	return k == Module || k == Class || k == Function
}

// Node is a definition in a file's outline. Text is the canonical
// serialization of the definition and is what gets fingerprinted.
type Node struct {
	Kind     Kind
	Name     string
	Line     int
	Text     string
	Children []*Node
}

// ErrPathNotFound is wrapped by every Locate failure.
var ErrPathNotFound = model.ErrPathNotFound

// LocateError explains which segment of a dotted path failed to resolve.
type LocateError struct {
	Path   string
	Reason string
}

func (e *LocateError) Error() string {
	return e.Reason
}

func (e *LocateError) Unwrap() error {
	return ErrPathNotFound
}

// Locate resolves a dotted path against the module outline root. Each
// segment matches the first child with that name; later redefinitions at
// the same level are ignored.
func Locate(root *Node, path string) (*Node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	current := root
	for i, segment := range segments {
		if i > 0 && !current.Kind.Container() {
			return nil, &LocateError{
				Path:   path,
				Reason: fmt.Sprintf("%q is a %s and has no members", strings.Join(segments[:i], "."), current.Kind),
			}
		}
		next := current.child(segment)
		if next == nil {
			return nil, &LocateError{
				Path:   path,
				Reason: fmt.Sprintf("%q not found in %s", segment, describe(current, segments[:i])),
			}
		}
		current = next
	}
	return current, nil
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func describe(n *Node, prefix []string) string {
	if len(prefix) == 0 {
		return "module"
	}
	return fmt.Sprintf("%s %q", n.Kind, strings.Join(prefix, "."))
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, &LocateError{Path: path, Reason: "empty code reference"}
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" || strings.TrimSpace(s) != s {
			return nil, &LocateError{Path: path, Reason: fmt.Sprintf("invalid code reference %q", path)}
		}
	}
	return segments, nil
}

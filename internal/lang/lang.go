// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and their outline builders.
package lang

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/gitref/internal/outline"
)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// BuildOutline converts a parsed, error-free syntax tree into the
	// file's structural outline.
	BuildOutline func(root *sitter.Node, source []byte) *outline.Node
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// ForPath returns the language for a file path, or nil if unsupported.
func ForPath(path string) *Language {
	name := ForExtension(filepath.Ext(path))
	if name == "" {
		return nil
	}
	return Languages[name]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// FirstError returns the 1-based line of the first syntax error in the
// tree, or 0 if the tree parsed cleanly.
func FirstError(node *sitter.Node) int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return Line(node)
	}
	if !node.HasError() {
		return 0
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if line := FirstError(node.Child(i)); line > 0 {
			return line
		}
	}
	return Line(node)
}

// ignoredTypes are syntax nodes that never contribute to canonical text.
var ignoredTypes = map[string]struct{}{
	"comment":           {},
	"line_continuation": {},
}

// Canonical serializes a syntax subtree to a normalized form: named nodes
// as parenthesized groups, tokens by their text. Comments and whitespace
// between tokens are dropped; text inside string literals is kept as is.
func Canonical(node *sitter.Node, source []byte) string {
	var b strings.Builder
	writeCanonical(&b, node, source)
	return b.String()
}

func writeCanonical(b *strings.Builder, node *sitter.Node, source []byte) {
	if _, skip := ignoredTypes[node.Type()]; skip {
		return
	}

	count := int(node.ChildCount())
	if count == 0 {
		if text := NodeText(node, source); text != "" {
			writeToken(b, text)
		}
		return
	}

	literal := strings.Contains(node.Type(), "string")
	if node.IsNamed() {
		writeToken(b, "("+node.Type())
	}
	cursor := node.StartByte()
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child.StartByte() > cursor {
			writeGap(b, source[cursor:child.StartByte()], literal)
		}
		writeCanonical(b, child, source)
		if child.EndByte() > cursor {
			cursor = child.EndByte()
		}
	}
	if node.EndByte() > cursor {
		writeGap(b, source[cursor:node.EndByte()], literal)
	}
	if node.IsNamed() {
		b.WriteByte(')')
	}
}

// writeGap emits source text that no child token covers. Outside string
// literals that is only whitespace and gets dropped.
func writeGap(b *strings.Builder, gap []byte, literal bool) {
	text := string(gap)
	if !literal {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
	}
	writeToken(b, strconv.Quote(text))
}

func writeToken(b *strings.Builder, token string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(token)
}

func definitionNode(kind outline.Kind, name string, def, whole *sitter.Node, source []byte) *outline.Node {
	return &outline.Node{
		Kind: kind,
		Name: name,
		Line: Line(def),
		Text: Canonical(whole, source),
	}
}

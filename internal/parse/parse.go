// Package parse turns source files into structural outlines using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/gitref/internal/fingerprint"
	"github.com/phobologic/gitref/internal/lang"
	"github.com/phobologic/gitref/internal/outline"
)

// DefaultCacheSize is the number of outlines kept by a Cache.
const DefaultCacheSize = 512

// ErrUnsupported is returned for files with no registered language.
var ErrUnsupported = errors.New("no structural parser")

// SyntaxError reports a file that tree-sitter could not parse cleanly.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d", e.Line)
}

// Cache holds outlines keyed by path and content digest. Outlines are
// never mutated after construction, so the cache is safe to share across
// goroutines.
type Cache struct {
	entries *lru.Cache[string, *outline.Node]
}

// NewCache creates a cache holding up to size outlines.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *outline.Node](size)
	if err != nil {
		return nil, fmt.Errorf("creating outline cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Len returns the number of cached outlines.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Parser owns one tree-sitter parser per language.
// Each goroutine must use its own Parser (not thread-safe).
type Parser struct {
	parsers map[string]*sitter.Parser
	cache   *Cache
}

// NewParser creates a parser backed by cache, which may be nil.
func NewParser(cache *Cache) *Parser {
	return &Parser{
		parsers: make(map[string]*sitter.Parser),
		cache:   cache,
	}
}

// Outline returns the structural outline of source, read from path. The
// language is chosen by path's extension.
func (p *Parser) Outline(ctx context.Context, path string, source []byte) (*outline.Node, error) {
	l := lang.ForPath(path)
	if l == nil {
		return nil, fmt.Errorf("%w for %q files", ErrUnsupported, filepath.Ext(path))
	}
	if len(source) == 0 {
		return &outline.Node{Kind: outline.Module, Line: 1}, nil
	}

	key := l.Name + "\x00" + path + "\x00" + fingerprint.Text(string(source))
	if p.cache != nil {
		if n, ok := p.cache.entries.Get(key); ok {
			return n, nil
		}
	}

	parser, ok := p.parsers[l.Name]
	if !ok {
		parser = l.NewParser()
		p.parsers[l.Name] = parser
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if line := lang.FirstError(root); line > 0 {
		return nil, &SyntaxError{Path: path, Line: line}
	}

	n := l.BuildOutline(root, source)
	if p.cache != nil {
		p.cache.entries.Add(key, n)
	}
	return n, nil
}

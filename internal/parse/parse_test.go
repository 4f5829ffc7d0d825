package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/gitref/internal/outline"
)

func TestOutlinePython(t *testing.T) {
	t.Parallel()

	p := NewParser(nil)
	root, err := p.Outline(context.Background(), "example.py", []byte("value = 1\n\nclass Foo:\n    bar = 2\n"))
	require.NoError(t, err)

	n, err := outline.Locate(root, "Foo.bar")
	require.NoError(t, err)
	assert.Equal(t, 4, n.Line)
}

func TestOutlineEmptyFile(t *testing.T) {
	t.Parallel()

	root, err := NewParser(nil).Outline(context.Background(), "empty.py", nil)
	require.NoError(t, err)
	assert.Empty(t, root.Children)
}

func TestOutlineUnsupported(t *testing.T) {
	t.Parallel()

	_, err := NewParser(nil).Outline(context.Background(), "notes.txt", []byte("hello"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), `".txt"`)
}

func TestOutlineSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := NewParser(nil).Outline(context.Background(), "broken.py", []byte("def broken(:\n    pass\n"))
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "broken.py", syntaxErr.Path)
	assert.Positive(t, syntaxErr.Line)
}

func TestOutlineCache(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(8)
	require.NoError(t, err)

	src := []byte("def f():\n    pass\n")
	first, err := NewParser(cache).Outline(context.Background(), "a.py", src)
	require.NoError(t, err)
	second, err := NewParser(cache).Outline(context.Background(), "a.py", src)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	changed, err := NewParser(cache).Outline(context.Background(), "a.py", []byte("def f():\n    return 1\n"))
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.Equal(t, 2, cache.Len())
}

func TestNewCacheDefaultSize(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(0)
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
}

package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutline() *Node {
	return &Node{
		Kind: Module,
		Line: 1,
		Children: []*Node{
			{Kind: Binding, Name: "value", Line: 1, Text: "value = 1"},
			{
				Kind: Class, Name: "Foo", Line: 3, Text: "class Foo",
				Children: []*Node{
					{Kind: Binding, Name: "bar", Line: 4, Text: "bar = 1"},
					{
						Kind: Function, Name: "run", Line: 6, Text: "def run",
						Children: []*Node{{Kind: Binding, Name: "local", Line: 7, Text: "local = 2"}},
					},
				},
			},
			{Kind: Function, Name: "helper", Line: 9, Text: "def helper first"},
			{Kind: Function, Name: "helper", Line: 12, Text: "def helper second"},
		},
	}
}

func TestLocateTopLevel(t *testing.T) {
	t.Parallel()

	n, err := Locate(sampleOutline(), "value")
	require.NoError(t, err)
	assert.Equal(t, Binding, n.Kind)
	assert.Equal(t, 1, n.Line)
}

func TestLocateNested(t *testing.T) {
	t.Parallel()

	root := sampleOutline()

	n, err := Locate(root, "Foo.bar")
	require.NoError(t, err)
	assert.Equal(t, 4, n.Line)

	n, err = Locate(root, "Foo.run.local")
	require.NoError(t, err)
	assert.Equal(t, 7, n.Line)

	n, err = Locate(root, "Foo")
	require.NoError(t, err)
	assert.Equal(t, Class, n.Kind)
}

func TestLocateRequiresFullPath(t *testing.T) {
	t.Parallel()

	_, err := Locate(sampleOutline(), "bar")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, `"bar" not found in module`, err.Error())
}

func TestLocateMissingNestedSegment(t *testing.T) {
	t.Parallel()

	_, err := Locate(sampleOutline(), "Foo.baz")
	require.Error(t, err)
	assert.Equal(t, `"baz" not found in class "Foo"`, err.Error())
}

func TestLocateDoesNotFallBackToOuterScope(t *testing.T) {
	t.Parallel()

	root := &Node{
		Kind: Module,
		Line: 1,
		Children: []*Node{
			{Kind: Function, Name: "bar", Line: 1, Text: "def bar"},
			{
				Kind: Class, Name: "Foo", Line: 4, Text: "class Foo",
				Children: []*Node{{Kind: Function, Name: "baz", Line: 5, Text: "def baz"}},
			},
		},
	}

	n, err := Locate(root, "bar")
	require.NoError(t, err)
	assert.Equal(t, 1, n.Line)

	_, err = Locate(root, "Foo.bar")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, `"bar" not found in class "Foo"`, err.Error())
}

func TestLocateIntoBinding(t *testing.T) {
	t.Parallel()

	_, err := Locate(sampleOutline(), "value.real")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, `"value" is a binding and has no members`, err.Error())
}

func TestLocateFirstMatchWins(t *testing.T) {
	t.Parallel()

	n, err := Locate(sampleOutline(), "helper")
	require.NoError(t, err)
	assert.Equal(t, 9, n.Line)
	assert.Equal(t, "def helper first", n.Text)
}

func TestLocateInvalidPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", ".", "Foo.", ".Foo", "Foo..bar", "Foo. bar"} {
		_, err := Locate(sampleOutline(), path)
		assert.ErrorIs(t, err, ErrPathNotFound, "path %q", path)
	}
}

func TestLocateDeterministic(t *testing.T) {
	t.Parallel()

	root := sampleOutline()
	first, err := Locate(root, "Foo.run")
	require.NoError(t, err)
	second, err := Locate(root, "Foo.run")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

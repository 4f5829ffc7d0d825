package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rstDoc = `Reading
=======

Use :gitref:` + "`reader.py::Reader.read`" + ` to read, or see
:gitref:` + "`the source <reader.py>`" + `.
`

func TestScanReST(t *testing.T) {
	t.Parallel()

	refs := Scan(rstDoc)
	require.Len(t, refs, 2)

	assert.Equal(t, ReST, refs[0].Syntax)
	assert.Equal(t, "reader.py::Reader.read", refs[0].Text)
	assert.Equal(t, 4, refs[0].Line)
	assert.Equal(t, refs[0].Raw, rstDoc[refs[0].Start:refs[0].End])

	assert.Equal(t, "the source <reader.py>", refs[1].Text)
	assert.Equal(t, 5, refs[1].Line)
}

func TestScanMyST(t *testing.T) {
	t.Parallel()

	doc := "# Title\n\nSee {gitref}`pkg/store.go::Store.Get` for details.\n"
	refs := Scan(doc)
	require.Len(t, refs, 1)
	assert.Equal(t, MyST, refs[0].Syntax)
	assert.Equal(t, "pkg/store.go::Store.Get", refs[0].Text)
	assert.Equal(t, 3, refs[0].Line)
}

func TestScanIgnoresOtherRoles(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Scan("A :ref:`label` and ``:gitref:`` with nothing inside"))
	assert.Nil(t, Scan("plain text"))
}

func TestSplitTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		title    string
		target   string
		explicit bool
	}{
		{"bare", "reader.py", "reader.py", "reader.py", false},
		{"coderef", "reader.py::Reader", "reader.py::Reader", "reader.py::Reader", false},
		{"explicit", "the reader <reader.py::Reader>", "the reader", "reader.py::Reader", true},
		{"escaped bracket", `a \<b>`, "a <b>", "a <b>", false},
		{"only target", "<reader.py>", "<reader.py>", "<reader.py>", false},
		{"escaped space", `read\ er.py`, "reader.py", "reader.py", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			title, target, explicit := SplitTitle(tt.raw)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.explicit, explicit)
		})
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "the reader", Label("the reader", "reader.py::Reader", true, ""))
	assert.Equal(t, "reader.py", Label("reader.py", "reader.py", false, ""))
	assert.Equal(t, "reader.py::Reader.read", Label("reader.py::Reader.read", "reader.py::Reader.read", false, ""))
	assert.Equal(t, "Reader.read (reader.py)",
		Label("reader.py::Reader.read", "reader.py::Reader.read", false, "{coderef} ({filename})"))
}

func TestRender(t *testing.T) {
	t.Parallel()

	refs := Scan(rstDoc)
	got := Render(rstDoc, refs, func(ref Reference) string {
		_, target, _ := SplitTitle(ref.Text)
		return "[" + target + "]"
	})
	assert.Contains(t, got, "Use [reader.py::Reader.read] to read")
	assert.Contains(t, got, "see\n[reader.py].")
	assert.NotContains(t, got, ":gitref:")
	assert.True(t, strings.HasPrefix(got, "Reading\n"))
}

func TestRenderWithoutReferences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unchanged", Render("unchanged", nil, nil))
}

func TestLink(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		`<a href="https://github.com/user/repo/blob/main/reader.py#L3">reader.py::Reader</a>`,
		Link("reader.py::Reader", "https://github.com/user/repo/blob/main/reader.py#L3"))
	assert.Equal(t, `a &lt;b&gt;`, Link("a <b>", ""))
	assert.Equal(t, `<a href="https://x/?a=1&amp;b=2">x</a>`, Link("x", "https://x/?a=1&b=2"))
}

// Package markup finds inline gitref references in documentation source
// and renders them as links.
//
// Two spellings are recognized: the reStructuredText role
//
//	:gitref:`reader.py::Reader.read`
//
// and the MyST Markdown role
//
//	{gitref}`reader.py::Reader.read`
//
// Either form accepts an explicit title as `title <target>`.
package markup

import (
	"html"
	"regexp"
	"strings"

	"github.com/phobologic/gitref/internal/model"
)

// DefaultLabelFormat is the implicit title of a code reference.
const DefaultLabelFormat = "{filename}::{coderef}"

// Syntax identifies the markup a reference was written in.
type Syntax string

const (
	ReST Syntax = "rst"
	MyST Syntax = "myst"
)

var rolePattern = regexp.MustCompile("(:gitref:|\\{gitref\\})`((?:[^`\\\\]|\\\\.)+)`")

// Reference is one role occurrence in a document.
type Reference struct {
	Syntax Syntax
	Raw    string // full occurrence including the role marker
	Text   string // content between the backticks
	Start  int    // byte offsets of Raw in the document
	End    int
	Line   int
}

// Scan returns the references in text in source order.
func Scan(text string) []Reference {
	matches := rolePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]Reference, 0, len(matches))
	line, pos := 1, 0
	for _, m := range matches {
		line += strings.Count(text[pos:m[0]], "\n")
		pos = m[0]

		syntax := ReST
		if text[m[2]] == '{' {
			syntax = MyST
		}
		refs = append(refs, Reference{
			Syntax: syntax,
			Raw:    text[m[0]:m[1]],
			Text:   text[m[4]:m[5]],
			Start:  m[0],
			End:    m[1],
			Line:   line,
		})
	}
	return refs
}

// SplitTitle separates an explicit `title <target>` form. Without an
// explicit title both results are the unescaped text.
func SplitTitle(raw string) (title, target string, explicit bool) {
	if strings.HasSuffix(raw, ">") {
		for i := 1; i < len(raw)-1; i++ {
			if raw[i] != '<' || raw[i-1] == '\\' {
				continue
			}
			title = strings.TrimSpace(raw[:i])
			if title == "" {
				break
			}
			return unescape(title), unescape(raw[i+1 : len(raw)-1]), true
		}
	}
	text := unescape(raw)
	return text, text, false
}

// Label returns the link text of a reference. An explicit title is kept;
// a code reference without one is labelled with format, in which
// {filename} and {coderef} are substituted.
func Label(title, target string, explicit bool, format string) string {
	if explicit {
		return title
	}
	filename, coderef, _ := model.SplitTarget(target)
	if coderef == "" {
		return title
	}
	if format == "" {
		format = DefaultLabelFormat
	}
	return strings.NewReplacer("{filename}", filename, "{coderef}", coderef).Replace(format)
}

// Render substitutes every reference in text with the output of render.
// refs must come from Scan(text).
func Render(text string, refs []Reference, render func(Reference) string) string {
	if len(refs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, ref := range refs {
		b.WriteString(text[pos:ref.Start])
		b.WriteString(render(ref))
		pos = ref.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// Link renders an HTML anchor. Without a URL the escaped label is
// returned on its own.
func Link(label, url string) string {
	if url == "" {
		return html.EscapeString(label)
	}
	return `<a href="` + html.EscapeString(url) + `">` + html.EscapeString(label) + `</a>`
}

// unescape drops backslash escapes; an escaped whitespace character is
// removed entirely.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case ' ', '\t', '\n':
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

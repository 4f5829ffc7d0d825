// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of pass reports.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/report"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a pass report into TOON format. The links table is
// only written when links is non-nil.
func Encode(r *report.Report, links []model.Link) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("mode: %s", encodeValue(string(r.Mode))))
	parts = append(parts, fmt.Sprintf("references: %d", r.Found))
	parts = append(parts, fmt.Sprintf("passed: %t", r.Passed))

	var problemRows [][]string
	for _, p := range r.Problems {
		problemRows = append(problemRows, []string{p.Target, p.Kind, p.Reason})
	}
	parts = append(parts, formatTabular("problems", []string{"target", "kind", "reason"}, problemRows))

	var unusedRows [][]string
	for _, target := range r.Unused {
		unusedRows = append(unusedRows, []string{target})
	}
	parts = append(parts, formatTabular("unused", []string{"target"}, unusedRows))

	if links != nil {
		var linkRows [][]string
		for i := range links {
			l := &links[i]
			linkRows = append(linkRows, []string{
				l.Document,
				fmt.Sprintf("%d", l.Line),
				l.Target,
				l.URL,
			})
		}
		parts = append(parts, formatTabular("links", []string{"document", "line", "target", "url"}, linkRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

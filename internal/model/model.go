// Package model defines core data structures for gitref.
package model

import "strings"

// TargetSeparator separates a filename from a dotted code reference.
const TargetSeparator = "::"

// Mode selects how a pass treats the baseline.
type Mode string

const (
	// ModeCheck compares fingerprints against the stored baseline.
	ModeCheck Mode = "check"
	// ModeUpdate records fresh fingerprints as the new baseline.
	ModeUpdate Mode = "update"
	// ModeOff resolves references without reading or writing a baseline.
	ModeOff Mode = "off"
)

// SplitTarget splits a reference target into its filename and an optional
// dotted code reference. qualified reports whether the separator was
// present; only unqualified targets refer to a whole file, so "a.py::" is a
// code reference with an empty path.
func SplitTarget(target string) (filename, coderef string, qualified bool) {
	return strings.Cut(target, TargetSeparator)
}

// Link is one rendered reference inside a document.
type Link struct {
	Document string
	Line     int
	Target   string
	Label    string
	URL      string
	Err      error
}

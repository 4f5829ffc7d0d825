package reconcile

import "github.com/phobologic/gitref/internal/model"

// Pending holds the writes one resolver made since its last flush. It is
// owned by a single worker until handed to Engine.Merge.
type Pending struct {
	Fingerprints map[string]string
	Lines        map[string]int
	Errors       map[string]*model.ResolveError
	Used         map[string]struct{}
	Names        map[string]Split
}

// Split is a target broken into its filename and code reference.
// Qualified targets carry the separator and always go through the locator,
// even when Coderef is empty.
type Split struct {
	Filename  string
	Coderef   string
	Qualified bool
}

// NewPending returns an empty set of writes.
func NewPending() Pending {
	return Pending{
		Fingerprints: make(map[string]string),
		Lines:        make(map[string]int),
		Errors:       make(map[string]*model.ResolveError),
		Used:         make(map[string]struct{}),
		Names:        make(map[string]Split),
	}
}

// Empty reports whether p carries no writes.
func (p Pending) Empty() bool {
	return len(p.Fingerprints) == 0 && len(p.Lines) == 0 && len(p.Errors) == 0 &&
		len(p.Used) == 0 && len(p.Names) == 0
}

// State is the run state of a pass.
type State struct {
	Fingerprints map[string]string
	Lines        map[string]int
	Errors       map[string]*model.ResolveError
	Used         map[string]struct{}
}

// merge applies p onto s: maps are last-write-wins per key, the used set
// is a union.
func (s *State) merge(p Pending) {
	for k, v := range p.Fingerprints {
		s.Fingerprints[k] = v
	}
	for k, v := range p.Lines {
		s.Lines[k] = v
	}
	for k, v := range p.Errors {
		s.Errors[k] = v
	}
	for k := range p.Used {
		s.Used[k] = struct{}{}
	}
}

// Package report turns the state of a finished pass into a pass/fail
// report.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/phobologic/gitref/internal/model"
)

// ErrFailed is returned for a pass that recorded reference errors.
var ErrFailed = errors.New("[gitref] References failed. Build failed.")

// Problem is a single failed target.
type Problem struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Report summarizes one pass.
type Report struct {
	Mode     model.Mode `json:"mode"`
	Found    int        `json:"references"`
	Unused   []string   `json:"unused"`
	Problems []Problem  `json:"problems"`
	Passed   bool       `json:"passed"`
}

// Input is the aggregated run state handed to Build.
type Input struct {
	Mode model.Mode
	// Baseline lists the targets of the loaded hash file. Only consulted
	// in check mode, where it is assumed to be exhaustive.
	Baseline []string
	Used     map[string]struct{}
	Errors   map[string]*model.ResolveError
	Logger   *slog.Logger
}

// Build produces the report for a pass. Unused baseline entries are a
// warning. Used targets missing from an exhaustive baseline indicate
// inconsistent state and return an error wrapping model.ErrInconsistent
// alongside the report.
func Build(in Input) (*Report, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Report{
		Mode:     in.Mode,
		Found:    len(in.Used),
		Unused:   []string{},
		Problems: problems(in.Errors),
	}
	r.Passed = len(r.Problems) == 0

	logger.Info(fmt.Sprintf("%d gitref %s found", r.Found, references(r.Found)))

	// Update never fails the pass; unresolvable references are only
	// reported and left out of the hash file.
	if in.Mode == model.ModeUpdate {
		if len(r.Problems) > 0 {
			logger.Error(fmt.Sprintf("%d errors building gitref", len(r.Problems)))
			for _, p := range r.Problems {
				logger.Error("gitref reference failed", "target", p.Target, "reason", p.Reason)
			}
		}
		r.Passed = true
		return r, nil
	}

	for _, p := range r.Problems {
		logger.Error(fmt.Sprintf("[gitref] Error resolving %q: %s", p.Target, p.Reason))
	}

	if in.Mode != model.ModeCheck {
		return r, nil
	}

	baselined := make(map[string]struct{}, len(in.Baseline))
	for _, target := range in.Baseline {
		baselined[target] = struct{}{}
		if _, ok := in.Used[target]; !ok {
			r.Unused = append(r.Unused, target)
		}
	}
	sort.Strings(r.Unused)
	if n := len(r.Unused); n > 0 {
		logger.Warn(fmt.Sprintf("gitref hash file is out of date, %d unused %s", n, references(n)))
	}

	var missing []string
	for target := range in.Used {
		if _, ok := baselined[target]; !ok {
			missing = append(missing, target)
		}
	}
	if n := len(missing); n > 0 {
		r.Passed = false
		sort.Strings(missing)
		return r, fmt.Errorf("%w, %d missing %s: %s", model.ErrInconsistent, n, references(n), strings.Join(missing, ", "))
	}
	return r, nil
}

// Err returns ErrFailed when the pass did not pass.
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	return ErrFailed
}

// Summary renders the report as human-readable text.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d gitref %s found\n", r.Found, references(r.Found))
	if n := len(r.Unused); n > 0 {
		fmt.Fprintf(&b, "gitref hash file is out of date, %d unused %s\n", n, references(n))
		for _, target := range r.Unused {
			fmt.Fprintf(&b, "  unused: %s\n", target)
		}
	}
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "[gitref] Error resolving %q: %s\n", p.Target, p.Reason)
	}
	switch {
	case !r.Passed:
		fmt.Fprintln(&b, ErrFailed.Error())
	case r.Mode == model.ModeUpdate:
		fmt.Fprintln(&b, "hash file updated")
	default:
		fmt.Fprintln(&b, "build succeeded")
	}
	return b.String()
}

func problems(errs map[string]*model.ResolveError) []Problem {
	out := make([]Problem, 0, len(errs))
	for target, err := range errs {
		out = append(out, Problem{
			Target: target,
			Kind:   err.KindName(),
			Reason: err.Error(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Target < out[j].Target
	})
	return out
}

func references(n int) string {
	if n == 1 {
		return "reference"
	}
	return "references"
}

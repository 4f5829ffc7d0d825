package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/gitref/internal/fingerprint"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/outline"
	"github.com/phobologic/gitref/internal/parse"
)

// Outcome is the result of resolving one target.
type Outcome struct {
	Target      string
	Filename    string
	Coderef     string
	Line        int // 0 for whole-file targets
	Fingerprint string
	Err         *model.ResolveError
}

// OK reports whether the target resolved without error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Resolver resolves targets on behalf of one worker. Its writes stay
// private until Flush. Not safe for concurrent use.
type Resolver struct {
	engine  *Engine
	parser  *parse.Parser
	primed  map[string]Outcome
	names   map[string]Split // lives for the whole pass, unlike pending
	pending Pending
}

// Resolve runs a target through the resolution steps: split, record
// usage, check the file exists, fingerprint it, then store (update and off
// modes) or compare against the baseline (check mode). Failures are
// recorded and returned in the outcome; they never stop the pass.
func (r *Resolver) Resolve(ctx context.Context, target string, recordUsage bool) Outcome {
	split := r.split(target)
	if recordUsage {
		r.pending.Used[target] = struct{}{}
	}
	if o, ok := r.primed[target]; ok {
		return o
	}

	o := Outcome{Target: target, Filename: split.Filename, Coderef: split.Coderef}

	path, ok := r.path(split.Filename)
	if !ok {
		return r.fail(o, model.ErrFileNotFound, "File not found (outside project root)")
	}
	info, err := os.Stat(path)
	if err != nil {
		return r.fail(o, model.ErrFileNotFound, "")
	}

	if !split.Qualified {
		o.Fingerprint, err = fingerprint.File(path)
		if err != nil {
			return r.fail(o, model.ErrFileNotFound, err.Error())
		}
	} else {
		if info.IsDir() {
			return r.fail(o, model.ErrPathNotFound, fmt.Sprintf("%s is a directory", split.Filename))
		}
		node, err := r.locate(ctx, path, split)
		if err != nil {
			return r.fail(o, model.ErrPathNotFound, err.Error())
		}
		o.Line = node.Line
		o.Fingerprint = fingerprint.Node(node)
		r.pending.Lines[target] = node.Line
	}

	switch r.engine.mode {
	case model.ModeUpdate, model.ModeOff:
		r.pending.Fingerprints[target] = o.Fingerprint
	case model.ModeCheck:
		stored, ok := r.engine.baseline.Hashes[target]
		if !ok {
			return r.fail(o, model.ErrUnknownTarget, "")
		}
		if stored != o.Fingerprint {
			return r.fail(o, model.ErrTargetChanged, "")
		}
	}

	r.engine.logger.Debug("resolved gitref target", "target", target, "line", o.Line)
	return o
}

// Flush hands over the writes made since the last flush.
func (r *Resolver) Flush() Pending {
	p := r.pending
	r.pending = NewPending()
	return p
}

// split returns the cached split of target. New splits are also handed to
// the engine so that resolvers created later start with them.
func (r *Resolver) split(target string) Split {
	if s, ok := r.names[target]; ok {
		return s
	}
	filename, coderef, qualified := model.SplitTarget(target)
	s := Split{Filename: filename, Coderef: coderef, Qualified: qualified}
	r.names[target] = s
	r.pending.Names[target] = s
	return s
}

// path joins filename onto the project root, refusing paths that escape it.
func (r *Resolver) path(filename string) (string, bool) {
	rel := filepath.Clean(filepath.FromSlash(filename))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(r.engine.root, rel), true
}

func (r *Resolver) locate(ctx context.Context, path string, split Split) (*outline.Node, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", split.Filename, err)
	}
	root, err := r.parser.Outline(ctx, split.Filename, source)
	if err != nil {
		var syntaxErr *parse.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("cannot parse %s: %w", split.Filename, err)
		}
		return nil, err
	}
	return outline.Locate(root, split.Coderef)
}

func (r *Resolver) fail(o Outcome, kind error, reason string) Outcome {
	err := &model.ResolveError{Target: o.Target, Kind: kind, Reason: reason}
	r.pending.Errors[o.Target] = err
	o.Err = err
	r.engine.logger.Debug("gitref target failed", "target", o.Target, "reason", err.Error())
	return o
}

// Package reconcile resolves reference targets, compares them against the
// baseline and aggregates the outcome of a pass.
//
// An Engine owns the run state of one pass. Workers resolve targets
// through their own Resolver, which never touches shared state; its writes
// are handed to Engine.Merge at the end of every document.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/phobologic/gitref/internal/baseline"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/parse"
	"github.com/phobologic/gitref/internal/report"
)

// ErrNoBaseline is returned when check mode finds no hash file.
var ErrNoBaseline = errors.New("could not load gitref hash file")

// Options configures an Engine.
type Options struct {
	ProjectRoot  string
	BaselinePath string
	Mode         model.Mode
	// Cache is shared by every resolver of the engine. A private cache is
	// created when nil.
	Cache  *parse.Cache
	Logger *slog.Logger
}

// Engine owns the run state of a single pass. It must not be reused
// across passes.
type Engine struct {
	root     string
	path     string
	mode     model.Mode
	cache    *parse.Cache
	logger   *slog.Logger
	baseline *baseline.Baseline

	mu       sync.Mutex
	state    State
	names    map[string]Split
	primed   map[string]Outcome
	finished bool
	report   *report.Report
	err      error
}

// New creates the engine for one pass. In check mode the baseline must
// exist and match the supported format version.
func New(opts Options) (*Engine, error) {
	info, err := os.Stat(opts.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s: not a directory", opts.ProjectRoot)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := opts.Cache
	if cache == nil {
		cache, err = parse.NewCache(parse.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{
		root:   opts.ProjectRoot,
		path:   opts.BaselinePath,
		mode:   opts.Mode,
		cache:  cache,
		logger: logger,
		state: State{
			Fingerprints: make(map[string]string),
			Lines:        make(map[string]int),
			Errors:       make(map[string]*model.ResolveError),
			Used:         make(map[string]struct{}),
		},
		names: make(map[string]Split),
	}

	switch opts.Mode {
	case model.ModeCheck:
		b, err := baseline.Load(opts.BaselinePath)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("%w at %s - run \"gitref update\"", ErrNoBaseline, opts.BaselinePath)
		}
		e.baseline = b
		for k, v := range b.Hashes {
			e.state.Fingerprints[k] = v
		}
		for k, v := range b.Lines {
			e.state.Lines[k] = v
		}
		logger.Debug("loaded hash file", "path", opts.BaselinePath, "targets", len(b.Hashes))
	case model.ModeUpdate, model.ModeOff:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	return e, nil
}

// Mode returns the mode of the pass.
func (e *Engine) Mode() model.Mode {
	return e.mode
}

// NewResolver returns a resolver for a single worker, seeded with the
// target splits merged so far.
func (e *Engine) NewResolver() *Resolver {
	e.mu.Lock()
	primed := e.primed
	names := make(map[string]Split, len(e.names))
	for k, v := range e.names {
		names[k] = v
	}
	e.mu.Unlock()

	return &Resolver{
		engine:  e,
		parser:  parse.NewParser(e.cache),
		primed:  primed,
		names:   names,
		pending: NewPending(),
	}
}

// Merge folds a worker's pending writes into the run state. Maps are
// last-write-wins per key and the used set is a union. Safe for
// concurrent use.
func (e *Engine) Merge(p Pending) {
	if p.Empty() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.merge(p)
	for k, v := range p.Names {
		e.names[k] = v
	}
}

// CheckAll resolves every baselined target without recording usage, so
// that every entry is validated even when no document references it any
// more. The outcomes are primed for resolvers created afterwards.
func (e *Engine) CheckAll(ctx context.Context) error {
	if e.baseline == nil {
		return nil
	}

	r := e.NewResolver()
	primed := make(map[string]Outcome, len(e.baseline.Hashes))
	for _, target := range e.baseline.Targets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		primed[target] = r.Resolve(ctx, target, false)
	}
	pending := r.Flush()
	e.Merge(pending)

	e.mu.Lock()
	e.primed = primed
	e.mu.Unlock()

	e.logger.Debug("checked hash file", "targets", len(primed), "errors", len(pending.Errors))
	return nil
}

// Finish builds the report for the pass and, in update mode, writes the
// hash file. Only the first call has any effect; later calls return the
// first result.
func (e *Engine) Finish() (*report.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finished {
		return e.report, e.err
	}
	e.finished = true

	in := report.Input{
		Mode:   e.mode,
		Used:   e.state.Used,
		Errors: e.state.Errors,
		Logger: e.logger,
	}
	if e.baseline != nil {
		in.Baseline = e.baseline.Targets()
	}
	e.report, e.err = report.Build(in)

	if e.mode == model.ModeUpdate {
		b := baseline.New()
		b.Hashes = e.state.Fingerprints
		b.Lines = e.state.Lines
		if err := baseline.Save(e.path, b); err != nil {
			e.err = errors.Join(e.err, err)
		} else {
			e.logger.Info("wrote hash file", "path", e.path, "targets", len(b.Hashes))
		}
	}
	return e.report, e.err
}

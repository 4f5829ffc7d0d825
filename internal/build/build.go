// Package build runs one documentation pass: it discovers the documents,
// resolves their references across a pool of workers and finishes with a
// report.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phobologic/gitref/internal/config"
	"github.com/phobologic/gitref/internal/discover"
	"github.com/phobologic/gitref/internal/markup"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/parse"
	"github.com/phobologic/gitref/internal/reconcile"
	"github.com/phobologic/gitref/internal/report"
)

var errEmptyTarget = errors.New("empty gitref target")

// Options configures a pass.
type Options struct {
	Config *config.Resolved
	// Mode is ignored when hashing is disabled in the configuration.
	Mode   model.Mode
	Logger *slog.Logger
	// Cache carries outlines across passes, as in watch mode. May be nil.
	Cache *parse.Cache
}

// Document is a processed documentation file.
type Document struct {
	Path    string // relative to the docs directory
	Content string // source with references rendered as links
	Links   []model.Link
}

// Result is the outcome of a pass.
type Result struct {
	PassID    string
	Mode      model.Mode
	Report    *report.Report
	Documents []Document
}

// Links returns the links of every document in document order.
func (r *Result) Links() []model.Link {
	links := []model.Link{}
	for _, d := range r.Documents {
		links = append(links, d.Links...)
	}
	return links
}

// Run executes a pass. A report is returned alongside a non-nil error when
// the pass finished but its state is inconsistent or the hash file could
// not be written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("build: no configuration")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	passID := uuid.NewString()
	logger = logger.With("pass", passID)

	mode := opts.Mode
	if !cfg.Hashing {
		mode = model.ModeOff
	}

	engine, err := reconcile.New(reconcile.Options{
		ProjectRoot:  cfg.ProjectRoot,
		BaselinePath: cfg.BaselinePath,
		Mode:         mode,
		Cache:        opts.Cache,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	if mode == model.ModeCheck {
		if err := engine.CheckAll(ctx); err != nil {
			return nil, err
		}
	}

	paths, err := discover.Documents(cfg.DocsDir, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering documents: %w", err)
	}
	logger.Debug("discovered documents", "count", len(paths), "mode", mode)

	h := &host{cfg: cfg, engine: engine, logger: logger}
	docs := h.processConcurrent(ctx, paths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep, err := engine.Finish()
	return &Result{PassID: passID, Mode: mode, Report: rep, Documents: docs}, err
}

type host struct {
	cfg    *config.Resolved
	engine *reconcile.Engine
	logger *slog.Logger
}

// processConcurrent renders every document across a worker pool. Each
// worker owns a resolver; its writes for a document travel back with the
// rendered document and are merged here, in the collecting goroutine.
func (h *host) processConcurrent(ctx context.Context, paths []string) []Document {
	if len(paths) == 0 {
		return nil
	}

	type result struct {
		index   int
		doc     Document
		pending reconcile.Pending
		ok      bool
	}

	numWorkers := h.cfg.Workers
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r := h.engine.NewResolver()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				doc, err := h.document(ctx, r, paths[idx])
				if err != nil {
					h.logger.Warn("skipping document", "document", paths[idx], "error", err)
				}
				results <- result{index: idx, doc: doc, pending: r.Flush(), ok: err == nil}
			}
		}()
	}

	for i := range paths {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]Document, len(paths))
	valid := make([]bool, len(paths))
	for res := range results {
		h.engine.Merge(res.pending)
		indexed[res.index] = res.doc
		valid[res.index] = res.ok
	}

	var docs []Document
	for i, v := range valid {
		if v {
			docs = append(docs, indexed[i])
		}
	}
	return docs
}

func (h *host) document(ctx context.Context, r *reconcile.Resolver, rel string) (Document, error) {
	source, err := os.ReadFile(filepath.Join(h.cfg.DocsDir, filepath.FromSlash(rel)))
	if err != nil {
		return Document{}, err
	}
	text := string(source)
	refs := markup.Scan(text)

	doc := Document{Path: rel, Links: make([]model.Link, 0, len(refs))}
	doc.Content = markup.Render(text, refs, func(ref markup.Reference) string {
		link := h.resolve(ctx, r, rel, ref)
		doc.Links = append(doc.Links, link)
		return markup.Link(link.Label, link.URL)
	})
	return doc, nil
}

func (h *host) resolve(ctx context.Context, r *reconcile.Resolver, rel string, ref markup.Reference) model.Link {
	title, target, explicit := markup.SplitTitle(ref.Text)
	target = strings.TrimSpace(target)
	link := model.Link{
		Document: rel,
		Line:     ref.Line,
		Target:   target,
		Label:    markup.Label(title, target, explicit, h.cfg.LabelFormat),
	}
	if target == "" {
		link.Err = errEmptyTarget
		h.logger.Warn("empty gitref target", "document", rel, "line", ref.Line)
		return link
	}

	o := r.Resolve(ctx, target, true)
	if o.Fingerprint != "" {
		link.URL = h.cfg.Remote.URL(o.Filename, o.Line)
	}
	if o.Err != nil {
		link.Err = o.Err
		h.logger.Warn(fmt.Sprintf("Error resolving code reference %q: %s", target, o.Err.Error()),
			"document", rel, "line", ref.Line)
	}
	return link
}

// Package watch re-runs a callback whenever files below a directory
// change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/gitref/internal/discover"
)

// DefaultDebounce is how long the tree must be quiet before a burst of
// changes is reported.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// OnChange receives the changed paths, relative to the root and
	// sorted, once per settled burst. Required.
	OnChange func(ctx context.Context, paths []string)
	Logger *slog.Logger
}

// Watcher watches a directory tree. Hidden, build and git-ignored
// directories are not watched; directories created later are added.
type Watcher struct {
	root    string
	opts    Options
	fsw     *fsnotify.Watcher
	ignore  *ignore.GitIgnore
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a watcher for root and registers every directory below it.
func New(root string, opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		opts:    opts,
		fsw:     fsw,
		ignore:  discover.Ignorer(root),
		logger:  logger,
		pending: make(map[string]struct{}),
	}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers change bursts until ctx is cancelled, then closes the
// watcher. The callback runs on the Run goroutine, so bursts never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			if paths := w.drain(); len(paths) > 0 {
				w.opts.OnChange(ctx, paths)
			}
		}
	}
}

// handle records an event and reports whether it counts as a change.
func (w *Watcher) handle(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if w.skip(rel) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", rel, "error", err)
			}
		}
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	w.mu.Lock()
	w.pending[rel] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("change detected", "path", rel, "op", event.Op.String())
	return true
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(paths)
	return paths
}

func (w *Watcher) skip(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if discover.SkipDir(part) {
			return true
		}
	}
	return w.ignore != nil && w.ignore.MatchesPath(rel)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, err := filepath.Rel(w.root, path)
			if err == nil && w.skip(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

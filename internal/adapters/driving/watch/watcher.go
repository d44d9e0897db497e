// Package watch re-indexes documents as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is re-indexed.
const DefaultDebounce = 500 * time.Millisecond

// Matcher reports whether a path is a document that should be indexed.
type Matcher interface {
	Matches(path string) bool
}

// Action is what the watcher does with a changed file.
type Action int

const (
	// ActionIngest re-indexes the file.
	ActionIngest Action = iota + 1
	// ActionRemove deletes the file's entries.
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionIngest:
		return "ingest"
	case ActionRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Result describes one processed change.
type Result struct {
	Path   string
	Action Action
	Report domain.IngestReport
	Err    error
}

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet period before a change is processed.
	Debounce time.Duration

	// OnResult, if set, is called after each processed change.
	OnResult func(Result)
}

// Watcher watches one directory (non-recursively) and keeps the index in
// step with the documents in it.
type Watcher struct {
	ingest   driving.IngestService
	dir      string
	match    Matcher
	debounce time.Duration
	onResult func(Result)

	mu      sync.Mutex
	pending map[string]pendingChange
}

type pendingChange struct {
	action Action
	at     time.Time
}

// New creates a watcher for dir.
func New(ingest driving.IngestService, dir string, match Matcher, opts Options) (*Watcher, error) {
	if ingest == nil || match == nil {
		return nil, fmt.Errorf("%w: watcher requires an ingest service and a matcher", domain.ErrConfiguration)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		ingest:   ingest,
		dir:      dir,
		match:    match,
		debounce: opts.Debounce,
		onResult: opts.OnResult,
		pending:  make(map[string]pendingChange),
	}, nil
}

// Run watches until ctx is cancelled. Failed ingests are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %w", domain.ErrIO, err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("%w: watch %s: %w", domain.ErrIO, w.dir, err)
	}
	logger.Info("Watching %s for changes", w.dir)

	tick := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if action, ok := w.handleFsEvent(event); ok {
				w.schedule(event.Name, action, time.Now())
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		case now := <-tick.C:
			w.flush(ctx, now)
		}
	}
}

// handleFsEvent decides what to do with a raw filesystem event.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (Action, bool) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return 0, false
	}
	if !w.match.Matches(event.Name) {
		return 0, false
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return 0, false
		}
		return ActionIngest, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return ActionRemove, true
	default:
		return 0, false
	}
}

// schedule records a change; a later change to the same path restarts its quiet period.
func (w *Watcher) schedule(path string, action Action, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = pendingChange{action: action, at: at}
}

// due removes and returns the paths that have been quiet for the debounce period.
func (w *Watcher) due(now time.Time) map[string]Action {
	w.mu.Lock()
	defer w.mu.Unlock()

	ready := make(map[string]Action)
	for path, p := range w.pending {
		if now.Sub(p.at) >= w.debounce {
			ready[path] = p.action
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	ready := w.due(now)
	paths := make([]string, 0, len(ready))
	for path := range ready {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		res := w.process(ctx, path, ready[path])
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			logger.Warn("Failed to %s %s: %v", res.Action, path, res.Err)
		}
		if w.onResult != nil {
			w.onResult(res)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string, action Action) Result {
	res := Result{Path: path, Action: action}
	switch action {
	case ActionIngest:
		res.Report, res.Err = w.ingest.IngestFile(ctx, path)
	case ActionRemove:
		res.Err = w.ingest.RemoveFile(ctx, path)
	}
	return res
}

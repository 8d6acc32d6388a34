// Package watcher keeps the search index following the shelf: any
// change inside the shelf directory schedules a synchronisation run.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driving"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change
// before synchronising. Copying a large PDF produces a burst of write
// events that must collapse into one run.
const DefaultDebounce = 2 * time.Second

// Watcher observes the shelf directory and triggers the synchronizer.
type Watcher struct {
	dir          string
	synchronizer driving.Synchronizer
	debounce     time.Duration

	// runMu serializes synchronisation runs. Two overlapping runs
	// would each diff the same shelf state and index books twice.
	runMu sync.Mutex
}

// Option configures the Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period before a run.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given shelf directory.
func New(dir string, synchronizer driving.Synchronizer, opts ...Option) *Watcher {
	w := &Watcher{
		dir:          dir,
		synchronizer: synchronizer,
		debounce:     DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until the context is cancelled. One synchronisation runs
// immediately to pick up changes made while the watcher was down.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	logger.Info("Watching %s", w.dir)
	w.synchronize(ctx)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// Chmod carries no content change.
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Shelf change: %s", event)

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.synchronize(ctx)
			})
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) synchronize(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	report, err := w.synchronizer.Synchronize(ctx)
	if err != nil {
		logger.Error("Synchronisation failed: %v", err)
		return
	}
	if !report.Clean() {
		logger.Info("Synchronised: %d indexed, %d deleted, %d failed",
			len(report.Indexed), len(report.Deleted), len(report.Failed))
	}
}

// Package watch triggers publish runs from filesystem changes to the Content
// Document and from an optional periodic schedule. Runs are serialized; a
// trigger arriving while a run is in flight is coalesced into one follow-up.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/styleguide-tools/stylepub/internal/logfields"
)

// Watcher monitors the Content Document and fires the trigger after changes
// settle for the debounce window.
type Watcher struct {
	path     string // absolute path of the watched file
	debounce time.Duration
	trigger  func()
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given file.
func NewWatcher(path string, debounce time.Duration, trigger func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}

	return &Watcher{
		path:     absPath,
		debounce: debounce,
		trigger:  trigger,
		watcher:  watcher,
	}, nil
}

// Start begins monitoring and blocks until the context is canceled.
// Watching the containing directory is more reliable than watching the file
// directly, since editors replace files on save.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	defer func() {
		_ = w.watcher.Close()
	}()

	slog.Info("Watching content document", logfields.Path(w.path), slog.Duration("debounce", w.debounce))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Content document changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

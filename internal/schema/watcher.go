package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher republishes the snapshot whenever a schema file changes.
//
// The file's directory is watched rather than the file itself, since
// editors often replace files by rename. Reload errors are logged and the
// previous snapshot stays published.
type Watcher struct {
	path     string
	provider *Provider
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnReload, if set, is called after each reload attempt.
	OnReload func(*Context, error)
}

// NewWatcher creates a watcher for path that publishes into provider.
func NewWatcher(path string, provider *Provider) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve schema path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		provider: provider,
		watcher:  fsw,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce overrides DefaultDebounce. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("schema watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	c, err := w.provider.Refresh(ctx, FileSource{Path: w.path})
	if err != nil {
		slog.Error("schema reload failed", "path", w.path, "error", err)
	} else {
		slog.Debug("schema reloaded", "path", w.path, "fingerprint", shortFingerprint(c.Fingerprint()))
	}
	if w.OnReload != nil {
		w.OnReload(c, err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

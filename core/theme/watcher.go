package theme

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cliftonc/calipso/core/logger"
)

// Watcher reloads the active theme when its files change on disk. Rapid
// editor save bursts are debounced into one rebuild.
type Watcher struct {
	registry *Registry
	log      *slog.Logger
	debounce time.Duration
	switched chan struct{}
}

// NewWatcher creates a watcher for the registry's active theme directory.
// Theme switches after creation move the watch to the new directory.
func NewWatcher(registry *Registry, log *slog.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	w := &Watcher{
		registry: registry,
		log:      log,
		debounce: 250 * time.Millisecond,
		switched: make(chan struct{}, 1),
	}
	registry.subscribeActivate(func() {
		select {
		case w.switched <- struct{}{}:
		default:
		}
	})
	return w
}

// Start watches until the context is canceled. It blocks; run it in its
// own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	dir := w.registry.Current().Dir()
	if err := fsw.Add(dir); err != nil {
		return err
	}

	w.log.Info("watching theme directory", logger.Path(dir))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.switched:
			next := w.registry.Current().Dir()
			if next == dir {
				continue
			}
			if err := fsw.Remove(dir); err != nil {
				w.log.Error("unwatch theme directory failed", logger.Path(dir), logger.Error(err))
			}
			if err := fsw.Add(next); err != nil {
				w.log.Error("watch theme directory failed", logger.Path(next), logger.Error(err))
				continue
			}
			dir = next
			w.log.Info("watching theme directory", logger.Path(dir))

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.registry.Reload(); err != nil {
				// Keep serving with the previous cache.
				w.log.Error("theme reload failed", logger.Error(err))
				continue
			}
			w.log.Info("theme reloaded after file change")

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("theme watcher error", logger.Error(err))
		}
	}
}

// relevant filters out events that cannot affect the compiled cache.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".html" || ext == ".json"
}

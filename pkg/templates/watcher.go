package templates

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SeedWatcher re-imports a seed file whenever it changes on disk.
// Rapid bursts of events (editors often write a file several times) are
// collapsed into one import.
type SeedWatcher struct {
	store    Store
	path     string
	interval time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	reloads int
	onLoad  func(ImportResult, error)
}

// NewSeedWatcher creates a watcher for the seed file at path. The parent
// directory is watched so that atomic replace-by-rename is observed.
func NewSeedWatcher(store Store, path string, debounce time.Duration) (*SeedWatcher, error) {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	return &SeedWatcher{
		store:    store,
		path:     abs,
		interval: debounce,
		watcher:  w,
		logger:   slog.Default().With("component", "templates.watcher"),
	}, nil
}

// OnLoad registers a callback invoked after each reload attempt.
func (sw *SeedWatcher) OnLoad(fn func(ImportResult, error)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.onLoad = fn
}

// Reloads returns the number of completed reload attempts.
func (sw *SeedWatcher) Reloads() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.reloads
}

// Watch blocks until ctx is cancelled, re-importing the seed file on change.
func (sw *SeedWatcher) Watch(ctx context.Context) error {
	defer sw.watcher.Close()

	dir := filepath.Dir(sw.path)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	sw.logger.Info("template seed watcher started",
		"path", sw.path,
		"debounce_ms", sw.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			sw.stopTimer()
			sw.logger.Info("template seed watcher stopped")
			return nil

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !sw.relevant(event) {
				continue
			}
			sw.logger.Debug("seed file event", "path", event.Name, "op", event.Op.String())
			sw.schedule(ctx)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			sw.logger.Error("template seed watcher error", "error", err)
		}
	}
}

func (sw *SeedWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	return err == nil && name == sw.path
}

func (sw *SeedWatcher) schedule(ctx context.Context) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.interval, func() {
		if ctx.Err() != nil {
			return
		}
		result, err := ImportFile(ctx, sw.store, sw.path)
		if err != nil {
			sw.logger.Error("template seed reload failed", "path", sw.path, "error", err)
		}

		sw.mu.Lock()
		sw.reloads++
		cb := sw.onLoad
		sw.mu.Unlock()

		if cb != nil {
			cb(result, err)
		}
	})
}

func (sw *SeedWatcher) stopTimer() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.timer != nil {
		sw.timer.Stop()
		sw.timer = nil
	}
}

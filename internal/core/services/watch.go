package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openclaw/ragmem/internal/core/ports/driving"
	"github.com/openclaw/ragmem/internal/logger"
)

// Watcher re-syncs the workspace when files change. One pass runs up
// front, so edits made while the tool was not running are picked up
// immediately, and the timer rearms after every pass, so the workspace
// is re-synced on a fixed interval even when no events arrive. Sync
// passes run strictly serially: filesystem events arriving while a
// pass is in flight coalesce into a single follow-up pass after the
// debounce interval, so two passes never interleave their storage
// writes.
type Watcher struct {
	engine    driving.SyncEngine
	workspace string
	interval  time.Duration
}

// skippedDirs are never watched for changes.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// NewWatcher creates a watcher running sync passes through the engine.
func NewWatcher(engine driving.SyncEngine, workspace string, interval time.Duration) *Watcher {
	return &Watcher{engine: engine, workspace: workspace, interval: interval}
}

// Watch blocks until the context is cancelled, running a sync pass
// whenever the workspace settles after a change.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.workspace); err != nil {
		return fmt.Errorf("watch %s: %w", w.workspace, err)
	}
	logger.Info("Watching %s for changes", w.workspace)

	// Catch up on changes made while the tool was not running.
	if _, err := w.engine.Sync(ctx); err != nil {
		logger.Error("Sync pass failed: %v", err)
	}

	debounce := time.NewTimer(w.interval)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, ev.Name); err != nil {
						logger.Warn("Watch new directory %s: %v", ev.Name, err)
					}
				}
			}
			logger.Debug("Change detected: %s", ev.Name)
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.interval)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case <-debounce.C:
			if _, err := w.engine.Sync(ctx); err != nil {
				logger.Error("Sync pass failed: %v", err)
			}
			debounce.Reset(w.interval)
		}
	}
}

// addRecursive watches a directory tree, skipping VCS and dependency
// directories.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skippedDirs[d.Name()] {
			return fs.SkipDir
		}
		if err := fw.Add(p); err != nil {
			logger.Warn("Watch %s: %v", p, err)
		}
		return nil
	})
}

package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"chronosec/internal/logger"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the classifier whenever a file under its rule path changes.
// onReload, if set, is called after each reload attempt. Watch returns once the
// watcher is running; it stops when ctx is cancelled.
func (c *SigmaClassifier) Watch(ctx context.Context, onReload func(SigmaLoadStats, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := addWatchPaths(watcher, c.path); err != nil {
		watcher.Close()
		return err
	}
	if c.mappingPath != "" {
		if err := watcher.Add(c.mappingPath); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", c.mappingPath, err)
		}
	}

	logger.Infof("watching sigma rules for changes: %s", c.path)

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				pending = time.After(reloadDebounce)

			case <-pending:
				pending = nil
				stats, err := c.Reload()
				if err != nil {
					logger.Errorf("sigma rule reload failed: %v", err)
				} else {
					logger.Infof("sigma rules reloaded: loaded=%d skipped_invalid=%d skipped_complex=%d",
						stats.Loaded, stats.SkippedInvalid, stats.SkippedComplex)
				}
				if onReload != nil {
					onReload(stats, err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("sigma rule watch error: %v", err)
			}
		}
	}()

	return nil
}

func addWatchPaths(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat rule path: %w", err)
	}
	if !info.IsDir() {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if err := watcher.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
		}
		return nil
	})
}

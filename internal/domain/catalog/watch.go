package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay coalesces the burst of events editors emit on save
const reloadDelay = 200 * time.Millisecond

// Watch reloads the catalog whenever path changes until ctx is done.
// The parent directory is watched so atomic rename-on-save is picked up.
// A file that fails to load is logged and the previous catalog stays active.
func (c *Catalog) Watch(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()

		var timer *time.Timer
		reload := make(chan struct{}, 1)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})

			case <-reload:
				if err := c.LoadFile(path); err != nil {
					logger.Warn("Catalog reload failed, keeping previous catalog",
						zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("Catalog reloaded", zap.String("path", path))
				c.mu.RLock()
				fn := c.onReload
				c.mu.RUnlock()
				if fn != nil {
					fn()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Catalog watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Package reload watches a config path and invokes a callback on change.
// It is an optional embedding aid for hot-reload workflows; the runtime
// never watches files itself.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of write events most editors emit for
// a single save.
const debounceWindow = 100 * time.Millisecond

// OnChange is invoked after the watched path changes.
type OnChange func(ctx context.Context) error

// Watch blocks watching path until ctx is canceled, calling onChange after
// every write or create event. Callback errors are logged (when logger is
// non-nil) and do not stop the watch.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange OnChange) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Error("watch error", "path", path, "error", err)
			}

		case <-fire:
			if err := onChange(ctx); err != nil && logger != nil {
				logger.Error("reload callback failed", "path", path, "error", err)
			}
		}
	}
}

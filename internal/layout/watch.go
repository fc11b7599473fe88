package layout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay collapses bursts of writes into one reload.
const DebounceDelay = 100 * time.Millisecond

// Watch reloads the layout at path whenever it changes and passes every
// successfully parsed layout to fn. Invalid files are logged and skipped.
// Watching stops when ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Layout)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go watchLoop(ctx, watcher, path, logger, fn)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, logger *slog.Logger, fn func(*Layout)) {
	defer watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		l, err := Load(path)
		if err != nil {
			logger.Warn("layout reload failed", "path", path, "error", err)
			return
		}
		logger.Info("layout reloaded", "path", path, "keys", len(l.Keys))
		fn(l)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(DebounceDelay, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("layout watcher error", "error", err)
		}
	}
}

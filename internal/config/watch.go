package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the freshly loaded config whenever the file at
// path is written. Editors that save by rename are handled by watching the
// parent directory. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	// Saves often arrive as several events; collapse them.
	const debounce = 100 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			cfg, err := LoadFrom(path)
			if err != nil {
				logger.Warn("ignoring invalid config change", "path", path, "error", err)
				continue
			}
			logger.Info("config changed", "path", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

package weights

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce window for editors that write manifests in several events.
const watchDebounce = 500 * time.Millisecond

// Watch re-runs onChange whenever the manifest file at path is written.
// Blocks until ctx is done. The parent directory is watched rather than the
// file itself so atomic saves (write temp, rename) keep working.
func Watch(ctx context.Context, path string, onChange func(*Manifest)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create manifest watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(path)
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
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			manifest, err := LoadManifest(path)
			if err != nil {
				slog.Error("manifest reload failed", "path", path, "error", err)
				continue
			}
			slog.Info("manifest reloaded", "path", path, "models", len(manifest.Models))
			onChange(manifest)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("manifest watcher error", "error", err)
		}
	}
}

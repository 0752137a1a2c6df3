package locale

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever its backing file changes. The
// directory is watched so editors that replace the file are handled.
// Closing done stops the watcher.
func (r *Registry) Watch(done <-chan struct{}) error {
	if r.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(r.path)
	go func() {
		defer watcher.Close()
		for {
			select {
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
				if err := r.Reload(); err != nil {
					slog.Error("locale reload failed", "path", r.path, "error", err)
					continue
				}
				slog.Info("locales reloaded", "path", r.path, "languages", len(r.All()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("locale watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()
	return nil
}

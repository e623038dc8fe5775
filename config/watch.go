package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads path on change and delivers the result to onChange. It
// returns a stop function that tears the watcher down. Reload failures are
// logged and skipped; the last good config stays in effect.
func Watch(path string, logger *slog.Logger, onChange func(Config)) (stop func(), err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "config-watch", "path", path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	quit := make(chan struct{})
	go func() {
		base := filepath.Base(path)
		var last time.Time
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if time.Since(last) < watchDebounce {
					continue
				}
				last = time.Now()
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload failed", "error", err)
					continue
				}
				logger.Info("config reloaded")
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "error", err)
			case <-quit:
				return
			}
		}
	}()

	return func() {
		close(quit)
		w.Close()
	}, nil
}

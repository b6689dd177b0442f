package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stridewm/stride/internal/logging"
)

// debounce absorbs the editor write-then-rename burst on save.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads the configuration when its file changes and delivers
// each successfully parsed config to the OnReload callback. Parse and
// validation failures keep the previous config and are logged.
type Watcher struct {
	path     string
	OnReload func(*Config)
}

// NewWatcher creates a watcher for a config path. An empty path watches
// the default location.
func NewWatcher(path string, onReload func(*Config)) *Watcher {
	if path == "" {
		path = GetConfigPath()
	}
	return &Watcher{path: path, OnReload: onReload}
}

// Serve watches until the context is cancelled. Implements suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory rather than the file: most editors replace the
	// file on save, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
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
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Err(err).Msg("config watcher error")
		case <-fire:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		logging.Warn().Err(err).Str("path", w.path).Msg("config reload failed, keeping previous config")
		return
	}
	logging.Info().Str("path", w.path).Msg("config reloaded")
	if w.OnReload != nil {
		w.OnReload(cfg)
	}
}

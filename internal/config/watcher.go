package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// ThresholdsWatcher re-reads the config file when it changes and swaps the
// thresholds section into the store. Invalid files leave the current
// thresholds in place.
type ThresholdsWatcher struct {
	path   string
	store  *core.ThresholdStore
	logger *zap.Logger
}

// NewThresholdsWatcher creates a watcher for the config file at path
func NewThresholdsWatcher(path string, store *core.ThresholdStore, logger *zap.Logger) *ThresholdsWatcher {
	return &ThresholdsWatcher{
		path:   path,
		store:  store,
		logger: logger,
	}
}

// Reload reads the file once and applies its thresholds
func (w *ThresholdsWatcher) Reload() (core.Thresholds, error) {
	cfg, err := New(w.path)
	if err != nil {
		return core.Thresholds{}, err
	}
	t, err := cfg.GetThresholds()
	if err != nil {
		return t, err
	}
	if err := w.store.Replace(t); err != nil {
		return t, err
	}
	return t, nil
}

// Watch starts a background goroutine that hot-reloads thresholds on file
// changes. The directory is watched so editors that replace the file by
// rename are picked up. Call the returned stop function to clean up.
func (w *ThresholdsWatcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	done := make(chan struct{})
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				t, err := w.Reload()
				if err != nil {
					w.logger.Warn("Ignoring invalid thresholds", zap.String("path", w.path), zap.Error(err))
					continue
				}
				w.logger.Info("Thresholds reloaded", zap.String("path", w.path), zap.Any("thresholds", t))
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("Config watcher error", zap.Error(err))
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

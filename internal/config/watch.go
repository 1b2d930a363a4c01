package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit for one save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever the file changes on disk, until ctx
// is cancelled. The parent directory is watched so atomic renames are seen.
func (m *Manager) Watch(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	dir := filepath.Dir(m.configPath)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go m.watchLoop(ctx, fsWatcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer fsWatcher.Close()

	target := filepath.Clean(m.configPath)
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := m.Load(); err != nil {
				slog.Warn("Config: reload failed, keeping previous settings", "path", m.configPath, "error", err)
				continue
			}
			slog.Info("Config: reloaded", "path", m.configPath)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config: watcher error", "error", err)
		}
	}
}

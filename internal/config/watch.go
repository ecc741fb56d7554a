package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hartonomous/substrate/internal/logger"
)

// Watcher reloads a Manager's merged config whenever the project's
// .substrate/settings.yaml changes. The teacher declares fsnotify as a
// direct dependency but no retrieved file exercises it; this is where it
// gets wired in, watching the extractor/walk/search/reasoning tuning file.
// No subcommand in cmd/substrate creates a Watcher, so the CLI does not
// reload settings while it runs.
type Watcher struct {
	fsw *fsnotify.Watcher
	mgr *Manager

	userConfigDir, projectDir string
}

// NewWatcher creates a Watcher for mgr's project settings file. Call
// Start to begin watching; call Close when done.
func NewWatcher(mgr *Manager, userConfigDir, projectDir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, mgr: mgr, userConfigDir: userConfigDir, projectDir: projectDir}
	settingsPath := filepath.Join(projectDir, ".substrate")
	if err := fsw.Add(settingsPath); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start runs the watch loop until Close is called. Intended to run in its
// own goroutine.
func (w *Watcher) Start() {
	settingsFile := filepath.Join(w.projectDir, ".substrate", "settings.yaml")
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != settingsFile {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.mgr.Load(w.userConfigDir, w.projectDir); err != nil {
				logger.Warn("config: reload failed", "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", settingsFile)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

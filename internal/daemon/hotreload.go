package daemon

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/volctl/internal/config"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 150 * time.Millisecond

// ConfigWatcher reloads the config file when it changes and hands every
// valid result to the reload callback. Invalid files are reported to the
// error callback and the previous config stays current.
type ConfigWatcher struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	path    string
	current *config.Config

	onReload func(cfg *config.Config)
	onError  func(err error)

	timer   *time.Timer
	done    chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, initial *config.Config, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ConfigWatcher{
		logger:  logger,
		watcher: fw,
		path:    path,
		current: initial,
		done:    make(chan struct{}),
	}, nil
}

// SetReloadCallback sets the function called with each valid new config.
func (w *ConfigWatcher) SetReloadCallback(f func(cfg *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = f
}

// SetErrorCallback sets the function called when a changed file is invalid.
func (w *ConfigWatcher) SetErrorCallback(f func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = f
}

// Current returns the last valid config.
func (w *ConfigWatcher) Current() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start watches the directory holding the config file. Editors that save
// by rename would otherwise drop a watch on the file itself.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.running = true

	go w.watch()
	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

func (w *ConfigWatcher) watch() {
	name := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *ConfigWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDelay, w.reload)
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.path)

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	onReload, onError := w.onReload, w.onError
	if err == nil {
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config file changed but is invalid", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
}

// Stop stops watching. Pending reloads are dropped.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.watcher.Close()
}

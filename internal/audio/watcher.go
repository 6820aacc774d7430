package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the feedback sound file and drops it from the player
// cache when it changes on disk.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player interface{ InvalidateCache(path string) }

	path    string
	modTime time.Time

	pollInterval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a sound file watcher.
func NewWatcher(player interface{ InvalidateCache(path string) }, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:       logger,
		player:       player,
		pollInterval: 2 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval. It takes effect on Start.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch replaces the watched path. An empty path stops watching.
func (w *Watcher) Watch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.path = path
	w.modTime = time.Time{}
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
}

// Start begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)
	return nil
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check invalidates the cached sound if the file is newer than last seen.
func (w *Watcher) check() {
	w.mu.RLock()
	path, last := w.path, w.modTime
	w.mu.RUnlock()

	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.ModTime().After(last) {
		return
	}

	w.logger.Debug("feedback sound changed, invalidating cache", "path", path)

	w.mu.Lock()
	if w.path == path {
		w.modTime = info.ModTime()
	}
	w.mu.Unlock()

	w.player.InvalidateCache(path)
}

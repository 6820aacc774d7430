package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/volctl/internal/config"
)

// minInterval keeps fast scrolling from stacking clicks.
const minInterval = 60 * time.Millisecond

type sink interface {
	Play(path string) error
	PlayClick() error
	SetVolume(volume float64)
	Preload(path string) error
	InvalidateCache(path string)
	Close()
}

// Feedback plays the configured sound after a wheel volume change.
type Feedback struct {
	mu      sync.Mutex
	logger  *slog.Logger
	sink    sink
	watcher *Watcher

	enabled bool
	sound   string

	now  func() time.Time
	last time.Time
}

// NewFeedback creates feedback playback from cfg.
func NewFeedback(cfg *config.Config, logger *slog.Logger) *Feedback {
	if logger == nil {
		logger = slog.Default()
	}
	return newFeedback(NewPlayer(logger), cfg, logger)
}

func newFeedback(s sink, cfg *config.Config, logger *slog.Logger) *Feedback {
	f := &Feedback{
		logger: logger,
		sink:   s,
		now:    time.Now,
	}
	f.watcher = NewWatcher(s, logger)
	f.apply(cfg)
	return f
}

// Start preloads the sound and watches it for changes.
func (f *Feedback) Start(ctx context.Context) error {
	f.mu.Lock()
	sound, enabled := f.sound, f.enabled
	f.mu.Unlock()

	if enabled && sound != "" {
		if err := f.sink.Preload(sound); err != nil {
			f.logger.Warn("failed to preload feedback sound", "path", sound, "error", err)
		}
	}
	return f.watcher.Start(ctx)
}

// Stop stops the watcher and releases the audio device.
func (f *Feedback) Stop() {
	f.watcher.Stop()
	f.sink.Close()
}

// UpdateConfig applies a reloaded config.
func (f *Feedback) UpdateConfig(cfg *config.Config) {
	f.apply(cfg)
	f.logger.Debug("feedback config updated", "enabled", cfg.Feedback.Enabled)
}

func (f *Feedback) apply(cfg *config.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enabled = cfg.Feedback.Enabled
	f.sound = cfg.FeedbackSound()
	f.sink.SetVolume(float64(cfg.Feedback.Volume) / 100.0)
	f.watcher.Watch(f.sound)
}

// Play plays the feedback sound unless disabled or called again too soon.
func (f *Feedback) Play() {
	f.mu.Lock()
	if !f.enabled {
		f.mu.Unlock()
		return
	}
	now := f.now()
	if !f.last.IsZero() && now.Sub(f.last) < minInterval {
		f.mu.Unlock()
		return
	}
	f.last = now
	sound := f.sound
	f.mu.Unlock()

	var err error
	if sound == "" {
		err = f.sink.PlayClick()
	} else {
		err = f.sink.Play(sound)
	}
	if err != nil {
		f.logger.Warn("failed to play feedback sound", "error", err)
	}
}

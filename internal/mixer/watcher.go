package mixer

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ResyncInterval is how often a subscribed watcher re-reads the mixer
// anyway, which is also how a dropped connection is noticed.
const ResyncInterval = 5 * time.Second

// Watcher reports sink and stream changes. Backends implementing
// Subscriber are read when the server announces a change; others are
// polled.
type Watcher struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	backend Backend

	// Polling interval
	pollInterval time.Duration

	// Last reported state
	last        State
	hasLast     bool
	lastStreams []Stream
	hasStreams  bool

	// Callbacks
	onChangeCallback  func(State)
	onStreamsCallback func([]Stream)
	onErrorCallback   func(error)
	failing          bool

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new Watcher for the given backend.
func NewWatcher(backend Backend, pollInterval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:       logger,
		backend:      backend,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval. Takes effect on the next Start.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback to invoke when the sink state changes.
// The callback runs on the watcher goroutine.
func (w *Watcher) SetChangeCallback(callback func(State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// SetStreamsCallback sets the callback invoked when the set of application
// streams or any of their levels changes. It is only used with backends
// implementing StreamBackend and runs on the watcher goroutine.
func (w *Watcher) SetStreamsCallback(callback func([]Stream)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onStreamsCallback = callback
}

// SetErrorCallback sets the callback invoked when polling starts failing.
// It fires once per run of consecutive failures.
func (w *Watcher) SetErrorCallback(callback func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching. The first successful read is always reported.
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

	w.logger.Debug("mixer watcher started", "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
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
	w.logger.Debug("mixer watcher stopped")
}

// Last returns the most recently observed state.
func (w *Watcher) Last() (State, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.hasLast
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sub, _ := w.backend.(Subscriber)
	var events <-chan struct{}
	subscribe := func() {
		if sub == nil || events != nil {
			return
		}
		ch, err := sub.Subscribe(ctx)
		if err != nil {
			w.logger.Debug("mixer subscription unavailable, polling", "error", err)
			return
		}
		events = ch
		ticker.Reset(max(interval, ResyncInterval))
		w.logger.Debug("mixer watcher subscribed to server events")
	}

	subscribe()
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-events:
			w.poll(ctx)
		case <-ticker.C:
			subscribe()
			w.poll(ctx)
		}
	}
}

// poll queries the backend once and invokes the callback on change.
func (w *Watcher) poll(ctx context.Context) {
	state, err := w.backend.State(ctx)
	if err != nil {
		w.logger.Debug("failed to query mixer state", "error", err)
		w.mu.Lock()
		first := !w.failing
		w.failing = true
		onError := w.onErrorCallback
		w.mu.Unlock()
		if first && onError != nil && ctx.Err() == nil {
			onError(err)
		}
		return
	}

	w.mu.Lock()
	w.failing = false
	changed := !w.hasLast || state != w.last
	w.last = state
	w.hasLast = true
	callback := w.onChangeCallback
	w.mu.Unlock()

	if changed {
		w.logger.Debug("mixer state changed", "volume", state.Volume, "muted", state.Muted)
		if callback != nil {
			callback(state)
		}
	}

	w.pollStreams(ctx)
}

func (w *Watcher) pollStreams(ctx context.Context) {
	w.mu.RLock()
	callback := w.onStreamsCallback
	w.mu.RUnlock()

	sb, ok := w.backend.(StreamBackend)
	if !ok || callback == nil {
		return
	}

	streams, err := sb.Streams(ctx)
	if err != nil {
		w.logger.Debug("failed to list streams", "error", err)
		return
	}

	w.mu.Lock()
	changed := !w.hasStreams || !slices.Equal(streams, w.lastStreams)
	w.lastStreams = streams
	w.hasStreams = true
	w.mu.Unlock()

	if changed {
		w.logger.Debug("streams changed", "count", len(streams))
		callback(slices.Clone(streams))
	}
}

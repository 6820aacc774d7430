package mixer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultRequestTimeout bounds a single outward request.
const DefaultRequestTimeout = 2 * time.Second

type request struct {
	key  string
	fn   func(ctx context.Context) error
	done func(error)
}

// Requests runs outward mixer requests one at a time on its own goroutine,
// in submission order. A waiting request is replaced in place by a newer
// one with the same non-empty key, so a slider drag sends only the latest
// position once the server catches up.
type Requests struct {
	mu      sync.Mutex
	logger  *slog.Logger
	timeout time.Duration
	pending []request
	ready   chan struct{}

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewRequests creates a request worker. A zero timeout uses
// DefaultRequestTimeout.
func NewRequests(timeout time.Duration, logger *slog.Logger) *Requests {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Requests{
		logger:  logger,
		timeout: timeout,
		ready:   make(chan struct{}, 1),
	}
}

// Submit queues fn. done, if set, receives fn's result on the worker
// goroutine. A replaced request's done is never called.
func (r *Requests) Submit(key string, fn func(ctx context.Context) error, done func(error)) {
	req := request{key: key, fn: fn, done: done}

	r.mu.Lock()
	replaced := false
	if key != "" {
		for i := range r.pending {
			if r.pending[i].key == key {
				r.pending[i] = req
				replaced = true
				break
			}
		}
	}
	if !replaced {
		r.pending = append(r.pending, req)
	}
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Pending returns the number of requests waiting to run.
func (r *Requests) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Start begins processing requests until ctx is cancelled or Stop is called.
func (r *Requests) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.loop(ctx)
}

// Stop stops the worker after the request in flight finishes. Requests
// still waiting are dropped.
func (r *Requests) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	dropped := len(r.pending)
	r.pending = nil
	r.mu.Unlock()

	<-r.doneCh
	if dropped > 0 {
		r.logger.Debug("dropped pending mixer requests", "count", dropped)
	}
}

func (r *Requests) loop(ctx context.Context) {
	defer close(r.doneCh)

	for {
		req, ok := r.next()
		if !ok {
			select {
			case <-r.ready:
				continue
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-r.stopCh:
			return
		default:
		}
		r.run(ctx, req)
	}
}

func (r *Requests) next() (request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return request{}, false
	}
	req := r.pending[0]
	r.pending[0] = request{}
	r.pending = r.pending[1:]
	return req, true
}

func (r *Requests) run(ctx context.Context, req request) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := req.fn(ctx)
	if err != nil {
		r.logger.Debug("mixer request failed", "key", req.key, "error", err)
	}
	if req.done != nil {
		req.done(err)
	}
}

package mixer

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// pulseSession is one connection to the audio server.
type pulseSession interface {
	Sink(name string) (volumes []uint32, muted bool, err error)
	SetSinkVolume(name string, volumes []uint32) error
	SetSinkMute(name string, muted bool) error
	SinkInputs() ([]sinkInput, error)
	SetSinkInputVolume(index uint32, volumes []uint32) error
	SetSinkInputMute(index uint32, muted bool) error
	Subscribe() error
	SetDeadline(t time.Time) error
	Close() error
}

type sinkInput struct {
	index   uint32
	name    string
	icon    string
	volumes []uint32
	muted   bool
}

type dialFunc func(notify func()) (pulseSession, error)

// Pulse talks the PulseAudio native protocol, which PipeWire-pulse also
// serves. The connection is opened lazily and reopened after any failed
// request, re-subscribing if a subscription was requested.
type Pulse struct {
	mu         sync.Mutex
	sink       string
	dial       dialFunc
	logger     *slog.Logger
	session    pulseSession
	subscribed bool
	events     chan struct{}
}

// NewPulse creates a native protocol backend for the given sink. An empty
// server uses the default socket.
func NewPulse(server, sink string, logger *slog.Logger) *Pulse {
	return newPulse(sink, func(notify func()) (pulseSession, error) {
		return dialProto(server, notify)
	}, logger)
}

func newPulse(sink string, dial dialFunc, logger *slog.Logger) *Pulse {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pulse{
		sink:   sink,
		dial:   dial,
		logger: logger,
		events: make(chan struct{}, 1),
	}
}

// notify signals a change without blocking the protocol reader.
func (p *Pulse) notify() {
	select {
	case p.events <- struct{}{}:
	default:
	}
}

// sessionLocked returns the open session, dialling if needed.
func (p *Pulse) sessionLocked() (pulseSession, error) {
	if p.session != nil {
		return p.session, nil
	}
	s, err := p.dial(p.notify)
	if err != nil {
		return nil, err
	}
	if p.subscribed {
		if err := s.Subscribe(); err != nil {
			_ = s.Close()
			return nil, err
		}
		// Anything may have changed while disconnected.
		p.notify()
	}
	p.session = s
	p.logger.Debug("connected to pulse server", "sink", p.sink, "subscribed", p.subscribed)
	return s, nil
}

// do runs fn on the session, bounded by ctx's deadline.
func (p *Pulse) do(ctx context.Context, fn func(s pulseSession) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.sessionLocked()
	if err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := s.SetDeadline(deadline); err != nil {
		p.resetLocked()
		return err
	}
	if err := fn(s); err != nil {
		p.resetLocked()
		return err
	}
	return nil
}

func (p *Pulse) resetLocked() {
	if p.session == nil {
		return
	}
	_ = p.session.Close()
	p.session = nil
	p.logger.Debug("pulse connection dropped")
}

// Close closes the connection. The backend reconnects on the next request.
func (p *Pulse) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

// Subscribe implements Subscriber.
func (p *Pulse) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subscribed {
		return p.events, nil
	}
	p.subscribed = true
	if p.session != nil {
		if err := p.session.Subscribe(); err != nil {
			p.resetLocked()
			return nil, err
		}
		return p.events, nil
	}
	if _, err := p.sessionLocked(); err != nil {
		return nil, err
	}
	return p.events, nil
}

// State implements Backend.
func (p *Pulse) State(ctx context.Context) (State, error) {
	var state State
	err := p.do(ctx, func(s pulseSession) error {
		volumes, muted, err := s.Sink(p.sink)
		if err != nil {
			return err
		}
		state = State{Volume: averageVolume(volumes), Muted: muted}
		return nil
	})
	return state, err
}

// ChangeVolume implements Backend.
func (p *Pulse) ChangeVolume(ctx context.Context, delta int, limit uint32) error {
	if delta == 0 {
		return nil
	}
	return p.do(ctx, func(s pulseSession) error {
		volumes, _, err := s.Sink(p.sink)
		if err != nil {
			return err
		}
		current := averageVolume(volumes)
		target := clampVolume(current, delta, limit)
		if target == current {
			return nil
		}
		return s.SetSinkVolume(p.sink, scaleChannels(volumes, target))
	})
}

// SetVolume implements Backend.
func (p *Pulse) SetVolume(ctx context.Context, volume uint32) error {
	return p.do(ctx, func(s pulseSession) error {
		volumes, _, err := s.Sink(p.sink)
		if err != nil {
			return err
		}
		return s.SetSinkVolume(p.sink, scaleChannels(volumes, volume))
	})
}

// SetMuted implements Backend.
func (p *Pulse) SetMuted(ctx context.Context, muted bool) error {
	return p.do(ctx, func(s pulseSession) error {
		return s.SetSinkMute(p.sink, muted)
	})
}

// Streams implements StreamBackend. Streams are sorted by name, then index.
func (p *Pulse) Streams(ctx context.Context) ([]Stream, error) {
	var streams []Stream
	err := p.do(ctx, func(s pulseSession) error {
		inputs, err := s.SinkInputs()
		if err != nil {
			return err
		}
		streams = make([]Stream, 0, len(inputs))
		for _, in := range inputs {
			streams = append(streams, Stream{
				Index:  in.index,
				Name:   in.name,
				Icon:   in.icon,
				Volume: averageVolume(in.volumes),
				Muted:  in.muted,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(streams, func(a, b Stream) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return streams, nil
}

// SetStreamVolume implements StreamBackend.
func (p *Pulse) SetStreamVolume(ctx context.Context, index uint32, volume uint32) error {
	return p.do(ctx, func(s pulseSession) error {
		inputs, err := s.SinkInputs()
		if err != nil {
			return err
		}
		i := slices.IndexFunc(inputs, func(in sinkInput) bool { return in.index == index })
		if i < 0 {
			p.logger.Debug("stream vanished before volume change", "index", index)
			return nil
		}
		return s.SetSinkInputVolume(index, scaleChannels(inputs[i].volumes, volume))
	})
}

// SetStreamMuted implements StreamBackend.
func (p *Pulse) SetStreamMuted(ctx context.Context, index uint32, muted bool) error {
	return p.do(ctx, func(s pulseSession) error {
		return s.SetSinkInputMute(index, muted)
	})
}

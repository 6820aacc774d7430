package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/tray"
)

// Scheduler runs functions on the UI thread.
type Scheduler interface {
	IdleAdd(f func())
}

// Popup is the popup window controller.
type Popup interface {
	ToggleOrMove(x, y int) error
	Visible() bool
	// Touch restarts the auto-close countdown after user interaction.
	Touch()
	Destroy()
}

// Overlay is the on-screen volume display.
type Overlay interface {
	Show(state mixer.State)
}

// Executor runs outward mixer requests away from the UI thread. Waiting
// requests with the same non-empty key may be merged, keeping the newest.
// done is called from the executor's goroutine.
type Executor interface {
	Submit(key string, fn func(ctx context.Context) error, done func(error))
}

// TrayUpdater receives state for the tray icon.
type TrayUpdater interface {
	Update(state mixer.State)
}

// Feedback plays the wheel click sound.
type Feedback interface {
	Play()
}

// Launcher starts an external program without waiting for it.
type Launcher func(args []string) error

// Options are the user-tunable parts of the loop.
type Options struct {
	// WheelStep is the volume change per wheel notch in percent.
	WheelStep int
	Rounding  config.Rounding
	// AllowExtra raises the volume limit to 150%.
	AllowExtra   bool
	MixerCommand []string
	Feedback     bool
	// OSD shows the overlay on volume changes while the popup is hidden.
	OSD bool
}

// OptionsFromConfig extracts the loop options from a config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WheelStep:    cfg.Mouse.WheelStep,
		Rounding:     cfg.Mouse.Rounding,
		AllowExtra:   cfg.Volume.AllowExtra,
		MixerCommand: cfg.MixerCommandArgs(),
		Feedback:     cfg.Feedback.Enabled,
		OSD:          cfg.OSD.Enabled,
	}
}

// Deps are the collaborators of a Loop. Nil optional fields are skipped.
type Deps struct {
	Channel   *tray.Channel
	Scheduler Scheduler
	Mixer     mixer.Backend
	Popup     Popup
	Tray      TrayUpdater

	// Optional.
	Feedback  Feedback
	Overlay   Overlay
	Executor  Executor
	Launch    Launcher
	OnState   func(mixer.State)
	OnStreams func([]mixer.Stream)
	OnQuit    []func()
	Quit     func()
	Logger   *slog.Logger
}

// Loop dispatches tray messages on the UI thread. Apart from Run, every
// method must be called on the UI thread. Mixer requests go through the
// Executor; without one they run inline.
type Loop struct {
	deps   Deps
	opts   Options
	logger *slog.Logger

	// state follows local requests optimistically; confirmed is the last
	// state reported by the server.
	state     mixer.State
	confirmed mixer.State
	hasState  bool
	quitting  bool
}

// NewLoop creates a loop.
func NewLoop(deps Deps, opts Options) *Loop {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Launch == nil {
		deps.Launch = StartCommand
	}
	return &Loop{deps: deps, opts: opts, logger: logger}
}

// SetOptions swaps the options, for example after a config reload.
func (l *Loop) SetOptions(opts Options) {
	l.opts = opts
}

// State returns the last mixer state seen by the loop.
func (l *Loop) State() mixer.State {
	return l.state
}

// Run pumps messages until the channel closes, a Quit message has been
// dispatched or ctx is cancelled. A closed channel is not an error.
func (l *Loop) Run(ctx context.Context) error {
	for {
		msg, err := l.deps.Channel.Receive(ctx)
		if err != nil {
			if errors.Is(err, tray.ErrChannelClosed) {
				l.logger.Debug("tray channel closed, stopping ui loop")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		done := make(chan struct{})
		l.deps.Scheduler.IdleAdd(func() {
			defer close(done)
			l.Dispatch(msg)
		})

		select {
		case <-done:
		case <-ctx.Done():
			return nil
		}

		if msg.Kind == tray.KindQuit {
			return nil
		}
	}
}

// Dispatch handles one message. It must run on the UI thread.
func (l *Loop) Dispatch(msg tray.Message) {
	if l.quitting {
		return
	}
	l.logger.Debug("tray message", "kind", msg.Kind, "x", msg.X, "y", msg.Y, "delta", msg.Delta)

	switch msg.Kind {
	case tray.KindActivate:
		if err := l.deps.Popup.ToggleOrMove(msg.X, msg.Y); err != nil {
			l.logger.Error("failed to toggle popup", "error", err)
		}
	case tray.KindScroll:
		l.scroll(msg.Delta)
	case tray.KindMute:
		l.toggleMute()
	case tray.KindExternalMixer:
		if err := l.deps.Launch(l.opts.MixerCommand); err != nil {
			l.logger.Error("failed to launch mixer", "command", l.opts.MixerCommand, "error", err)
		}
	case tray.KindPreferences:
		path, err := config.ConfigPath()
		if err != nil {
			l.logger.Warn("no config path", "error", err)
			return
		}
		l.logger.Info("preferences are edited in the config file", "path", path)
	case tray.KindAbout:
		l.logger.Info("volctl, a system tray volume control")
	case tray.KindQuit:
		l.quit()
	default:
		l.logger.Warn("unknown tray message", "kind", msg.Kind)
	}
}

// ScrollChange converts a wheel delta into a raw volume change. Scrolling
// up reports a negative delta and raises the volume.
func ScrollChange(delta, step int, rounding config.Rounding) int {
	v := -float64(delta) * float64(step) / 100 * float64(mixer.MaxNaturalVolume)
	return int(rounding.Round(v))
}

func (l *Loop) scroll(delta int) {
	change := ScrollChange(delta, l.opts.WheelStep, l.opts.Rounding)
	if change == 0 {
		return
	}
	l.touchPopup()

	limit := mixer.Limit(l.opts.AllowExtra)
	l.submit("", func(ctx context.Context) error {
		return l.deps.Mixer.ChangeVolume(ctx, change, limit)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to change volume", "change", change, "error", err)
			return
		}
		if l.opts.Feedback && l.deps.Feedback != nil {
			l.deps.Feedback.Play()
		}
	})
}

func (l *Loop) toggleMute() {
	muted := !l.state.Muted
	l.state.Muted = muted
	l.submit("", func(ctx context.Context) error {
		return l.deps.Mixer.SetMuted(ctx, muted)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to toggle mute", "error", err)
			l.revert()
			return
		}
		l.logger.Debug("mute toggled", "muted", muted)
	})
}

// SetVolume moves the sink to target, as requested by the popup slider.
func (l *Loop) SetVolume(target uint32) {
	if l.quitting || target == l.state.Volume {
		return
	}
	l.touchPopup()
	l.state.Volume = target
	l.submit("sink-volume", func(ctx context.Context) error {
		return l.deps.Mixer.SetVolume(ctx, target)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to set volume", "target", target, "error", err)
			l.revert()
		}
	})
}

// SetMuted sets the mute flag, as requested by the popup toggle.
func (l *Loop) SetMuted(muted bool) {
	if l.quitting || muted == l.state.Muted {
		return
	}
	l.touchPopup()
	l.state.Muted = muted
	l.submit("", func(ctx context.Context) error {
		return l.deps.Mixer.SetMuted(ctx, muted)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to set mute", "muted", muted, "error", err)
			l.revert()
		}
	})
}

// SetStreamVolume moves one application stream to volume.
func (l *Loop) SetStreamVolume(index, volume uint32) {
	streams, ok := l.streams()
	if !ok {
		return
	}
	l.touchPopup()
	l.submit(fmt.Sprintf("stream-volume-%d", index), func(ctx context.Context) error {
		return streams.SetStreamVolume(ctx, index, volume)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to set stream volume", "stream", index, "error", err)
		}
	})
}

// SetStreamMuted sets one application stream's mute flag.
func (l *Loop) SetStreamMuted(index uint32, muted bool) {
	streams, ok := l.streams()
	if !ok {
		return
	}
	l.touchPopup()
	l.submit("", func(ctx context.Context) error {
		return streams.SetStreamMuted(ctx, index, muted)
	}, func(err error) {
		if err != nil {
			l.logger.Error("failed to set stream mute", "stream", index, "error", err)
		}
	})
}

func (l *Loop) streams() (mixer.StreamBackend, bool) {
	if l.quitting {
		return nil, false
	}
	sb, ok := l.deps.Mixer.(mixer.StreamBackend)
	if !ok {
		l.logger.Debug("mixer backend has no application streams")
	}
	return sb, ok
}

// HandleState records a new mixer state and pushes it to the popup
// widgets and the tray icon. A change while the popup is hidden is also
// shown on the overlay.
func (l *Loop) HandleState(state mixer.State) {
	if l.quitting {
		return
	}
	changed := l.hasState && state != l.confirmed
	l.state = state
	l.confirmed = state
	l.hasState = true

	if l.deps.OnState != nil {
		l.deps.OnState(state)
	}
	if l.deps.Tray != nil {
		l.deps.Tray.Update(state)
	}
	if changed && l.opts.OSD && l.deps.Overlay != nil && !l.deps.Popup.Visible() {
		l.deps.Overlay.Show(state)
	}
}

// HandleStreams pushes a new list of application streams to the popup.
func (l *Loop) HandleStreams(streams []mixer.Stream) {
	if l.quitting || l.deps.OnStreams == nil {
		return
	}
	l.deps.OnStreams(streams)
}

// revert drops optimistic changes after a failed request and puts the
// widgets back to the server's state.
func (l *Loop) revert() {
	if l.state == l.confirmed {
		return
	}
	l.state = l.confirmed
	if l.deps.OnState != nil {
		l.deps.OnState(l.confirmed)
	}
}

func (l *Loop) touchPopup() {
	if l.deps.Popup != nil {
		l.deps.Popup.Touch()
	}
}

// submit hands fn to the executor. then runs on the UI thread with fn's
// result, unless the loop has quit by then.
func (l *Loop) submit(key string, fn func(ctx context.Context) error, then func(error)) {
	if l.deps.Executor == nil {
		ctx, cancel := context.WithTimeout(context.Background(), mixer.DefaultRequestTimeout)
		defer cancel()
		then(fn(ctx))
		return
	}
	l.deps.Executor.Submit(key, fn, func(err error) {
		l.deps.Scheduler.IdleAdd(func() {
			if !l.quitting {
				then(err)
			}
		})
	})
}

func (l *Loop) quit() {
	l.quitting = true
	l.logger.Info("quitting")

	l.deps.Popup.Destroy()
	for _, f := range l.deps.OnQuit {
		f()
	}
	if l.deps.Quit != nil {
		l.deps.Quit()
	}
}

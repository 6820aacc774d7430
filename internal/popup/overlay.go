package popup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/placement"
)

const (
	// OverlayMargin is the distance in pixels from the anchored screen edges.
	OverlayMargin = 64
	// OverlayNamespace is the layer-shell namespace of the overlay surface.
	OverlayNamespace = "volctl-osd"

	fadeInterval = 30 * time.Millisecond
	fadeSteps    = 20
)

// OverlayWindow is the on-screen volume display.
type OverlayWindow interface {
	placement.Window
	Present()
	Hide()
	Destroy()
	SetState(state mixer.State)
	SetOpacity(opacity float64)
	// Size returns the window size in pixels.
	Size() (width, height int)
}

// OverlayFactory builds the overlay window on first use.
type OverlayFactory func() (OverlayWindow, error)

// Align is a position along one screen axis.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Anchor is where the overlay sits on the screen.
type Anchor struct {
	H, V Align
}

// AnchorFor maps a configured position to an anchor. Unknown positions
// fall back to the bottom-right corner.
func AnchorFor(pos config.Position) Anchor {
	switch pos {
	case config.PositionCenter:
		return Anchor{AlignCenter, AlignCenter}
	case config.PositionMiddleRight:
		return Anchor{AlignEnd, AlignCenter}
	case config.PositionTopRight:
		return Anchor{AlignEnd, AlignStart}
	case config.PositionTopCenter:
		return Anchor{AlignCenter, AlignStart}
	case config.PositionTopLeft:
		return Anchor{AlignStart, AlignStart}
	case config.PositionMiddleLeft:
		return Anchor{AlignStart, AlignCenter}
	case config.PositionBottomLeft:
		return Anchor{AlignStart, AlignEnd}
	case config.PositionBottomCenter:
		return Anchor{AlignCenter, AlignEnd}
	}
	return Anchor{AlignEnd, AlignEnd}
}

// Layout returns the layer-shell layout for the anchor. Centered axes get
// no anchor, which the compositor centers.
func (a Anchor) Layout(margin int) placement.Layout {
	var edges []placement.Edge
	switch a.H {
	case AlignStart:
		edges = append(edges, placement.EdgeLeft)
	case AlignEnd:
		edges = append(edges, placement.EdgeRight)
	}
	switch a.V {
	case AlignStart:
		edges = append(edges, placement.EdgeTop)
	case AlignEnd:
		edges = append(edges, placement.EdgeBottom)
	}
	return placement.Layout{Namespace: OverlayNamespace, Anchors: edges, Margin: margin}
}

// Origin returns the top-left corner of a width x height window on a
// screenW x screenH screen.
func (a Anchor) Origin(screenW, screenH, width, height, margin int) (x, y int) {
	return alignAxis(a.H, screenW, width, margin), alignAxis(a.V, screenH, height, margin)
}

func alignAxis(align Align, limit, size, margin int) int {
	switch align {
	case AlignStart:
		return margin
	case AlignCenter:
		return (limit - size) / 2
	}
	return limit - size - margin
}

// OverlayOptions configures the overlay.
type OverlayOptions struct {
	// Timeout is how long the overlay stays after the last change.
	Timeout time.Duration
	Anchor  Anchor
	Margin  int
	// Fade fades the overlay out instead of hiding it at once.
	Fade   bool
	Screen ScreenSize
	Timers Timers
}

// Overlay shows the volume briefly after it changes. All methods must be
// called on the UI thread.
type Overlay struct {
	factory OverlayFactory
	placer  placement.Placer
	opts    OverlayOptions
	logger  *slog.Logger

	window    OverlayWindow
	visible   bool
	fade      int
	stopTimer func()
	destroyed bool
}

// NewOverlay creates an overlay. The window is not built until the first
// Show.
func NewOverlay(factory OverlayFactory, placer placement.Placer, opts OverlayOptions, logger *slog.Logger) *Overlay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Overlay{factory: factory, placer: placer, opts: opts, logger: logger}
}

// SetOptions replaces the overlay options. A visible overlay is moved on
// its next Show.
func (o *Overlay) SetOptions(opts OverlayOptions) {
	o.opts = opts
}

// Visible reports whether the overlay is on screen, fading included.
func (o *Overlay) Visible() bool {
	return o.visible
}

// Show displays state and restarts the hide countdown.
func (o *Overlay) Show(state mixer.State) {
	if o.destroyed {
		return
	}
	w, err := o.ensureWindow()
	if err != nil {
		o.logger.Warn("overlay unavailable", "error", err)
		return
	}

	w.SetState(state)
	o.fade = fadeSteps
	w.SetOpacity(1)

	if !o.visible {
		x, y := o.origin(w)
		o.placer.Place(w, x, y)
		w.Present()
		o.visible = true
		o.logger.Debug("overlay shown", "x", x, "y", y)
	}
	o.schedule(o.opts.Timeout, o.expire)
}

// Destroy tears the window down. Show is a no-op afterwards.
func (o *Overlay) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.cancel()
	o.visible = false
	if o.window != nil {
		o.window.Destroy()
		o.window = nil
	}
}

func (o *Overlay) expire() {
	o.stopTimer = nil
	if !o.opts.Fade {
		o.hide()
		return
	}
	o.fadeStep()
}

func (o *Overlay) fadeStep() {
	o.stopTimer = nil
	o.fade--
	if o.fade <= 0 {
		o.hide()
		return
	}
	o.window.SetOpacity(float64(o.fade) / fadeSteps)
	o.schedule(fadeInterval, o.fadeStep)
}

func (o *Overlay) hide() {
	o.cancel()
	if !o.visible || o.window == nil {
		return
	}
	o.visible = false
	o.window.Hide()
	o.logger.Debug("overlay hidden")
}

func (o *Overlay) schedule(d time.Duration, f func()) {
	o.cancel()
	if o.opts.Timers == nil {
		return
	}
	o.stopTimer = o.opts.Timers.AfterFunc(d, f)
}

func (o *Overlay) cancel() {
	if o.stopTimer != nil {
		o.stopTimer()
		o.stopTimer = nil
	}
}

func (o *Overlay) origin(w OverlayWindow) (int, int) {
	if o.opts.Screen == nil {
		return 0, 0
	}
	sw, sh, ok := o.opts.Screen()
	if !ok {
		return 0, 0
	}
	width, height := w.Size()
	return o.opts.Anchor.Origin(sw, sh, width, height, o.opts.Margin)
}

func (o *Overlay) ensureWindow() (OverlayWindow, error) {
	if o.window != nil {
		return o.window, nil
	}
	w, err := o.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay window: %w", err)
	}
	o.placer.Attach(w)
	o.window = w
	return w, nil
}

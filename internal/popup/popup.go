// Package popup owns volctl's transient windows: the volume popup with
// its visibility and auto-close, and the on-screen volume overlay.
package popup

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/volctl/internal/placement"
)

// ErrDestroyed is returned after Destroy.
var ErrDestroyed = errors.New("popup destroyed")

// Visibility is the popup state as seen by the controller.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// Window is a popup window.
type Window interface {
	placement.Window
	Present()
	Hide()
	Destroy()
	// ConnectHide registers f to run whenever the window gets hidden,
	// including by the window manager.
	ConnectHide(f func())
	// ConnectPointer registers callbacks for the pointer entering and
	// leaving the window.
	ConnectPointer(enter, leave func())
}

// Timers schedules callbacks on the UI thread.
type Timers interface {
	// AfterFunc runs f once after d. stop cancels it if it has not run.
	AfterFunc(d time.Duration, f func()) (stop func())
}

// Factory builds the popup window on first use.
type Factory func() (Window, error)

// ScreenSize returns the size of the monitor the popup opens on.
type ScreenSize func() (width, height int, ok bool)

// Options configures the controller.
type Options struct {
	// Clamp keeps the requested position inside the screen.
	Clamp bool
	// Width and Height are the popup size used for clamping.
	Width  int
	Height int
	// Screen reports the monitor size. Clamping is skipped when nil.
	Screen ScreenSize
	// AutoClose hides the popup Timeout after it was shown, the pointer
	// left it or the user last changed a control. It needs Timers.
	AutoClose bool
	Timeout   time.Duration
	Timers    Timers
}

// Controller toggles the popup between hidden and visible. All methods
// must be called on the UI thread.
type Controller struct {
	factory Factory
	placer  placement.Placer
	opts    Options
	logger  *slog.Logger

	window     Window
	visibility Visibility
	destroyed  bool
	hovered    bool
	stopTimer  func()
}

// NewController creates a controller. The window is not built until the
// first ToggleOrMove.
func NewController(factory Factory, placer placement.Placer, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		factory: factory,
		placer:  placer,
		opts:    opts,
		logger:  logger,
	}
}

// Visibility returns the current state.
func (c *Controller) Visibility() Visibility {
	return c.visibility
}

// Visible reports whether the popup is shown.
func (c *Controller) Visible() bool {
	return c.visibility == Visible
}

// SetOptions replaces the controller options, for example after a config
// reload.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts
	c.arm()
}

// Touch restarts the auto-close countdown. Call it when the user changes
// a control in the popup.
func (c *Controller) Touch() {
	if c.visibility == Visible {
		c.arm()
	}
}

// ToggleOrMove hides a visible popup, or places and shows a hidden one at
// (x, y).
func (c *Controller) ToggleOrMove(x, y int) error {
	if c.destroyed {
		return ErrDestroyed
	}

	if c.visibility == Visible {
		c.hide()
		c.logger.Debug("popup hidden")
		return nil
	}

	w, err := c.ensureWindow()
	if err != nil {
		return err
	}

	x, y = c.clamp(x, y)
	c.placer.Place(w, x, y)
	c.visibility = Visible
	// A window hidden under the pointer never sees the leave.
	c.hovered = false
	w.Present()
	c.arm()
	c.logger.Debug("popup shown", "x", x, "y", y)
	return nil
}

func (c *Controller) hide() {
	c.visibility = Hidden
	c.disarm()
	c.window.Hide()
}

// arm (re)starts the auto-close countdown unless the pointer is inside.
func (c *Controller) arm() {
	c.disarm()
	if !c.opts.AutoClose || c.opts.Timers == nil || c.opts.Timeout <= 0 {
		return
	}
	if c.visibility != Visible || c.hovered {
		return
	}
	c.stopTimer = c.opts.Timers.AfterFunc(c.opts.Timeout, c.autoClose)
}

func (c *Controller) disarm() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

func (c *Controller) autoClose() {
	c.stopTimer = nil
	if c.destroyed || c.visibility != Visible {
		return
	}
	c.hide()
	c.logger.Debug("popup auto-closed", "timeout", c.opts.Timeout)
}

func (c *Controller) pointerEnter() {
	c.hovered = true
	c.disarm()
}

func (c *Controller) pointerLeave() {
	c.hovered = false
	c.arm()
}

// Destroy tears the window down. The controller cannot be used afterwards.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.visibility = Hidden
	c.disarm()
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
}

func (c *Controller) ensureWindow() (Window, error) {
	if c.window != nil {
		return c.window, nil
	}
	w, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create popup window: %w", err)
	}
	w.ConnectHide(func() {
		c.visibility = Hidden
		c.disarm()
	})
	w.ConnectPointer(c.pointerEnter, c.pointerLeave)
	c.placer.Attach(w)
	c.window = w
	return w, nil
}

func (c *Controller) clamp(x, y int) (int, int) {
	if !c.opts.Clamp || c.opts.Screen == nil {
		return x, y
	}
	sw, sh, ok := c.opts.Screen()
	if !ok {
		return x, y
	}
	return clampAxis(x, c.opts.Width, sw), clampAxis(y, c.opts.Height, sh)
}

func clampAxis(pos, size, limit int) int {
	if pos+size > limit {
		pos = limit - size
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

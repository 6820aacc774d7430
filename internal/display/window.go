package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gdkx11/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volctl/internal/config"
)

// PopupWindow is the borderless window holding the volume widgets.
type PopupWindow struct {
	window  *gtk.Window
	Volume  *VolumeScale
	Streams *StreamList
	logger  *slog.Logger
}

// NewPopupWindow builds the popup window for app. The window stays
// hidden until Present.
func NewPopupWindow(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *PopupWindow {
	if logger == nil {
		logger = slog.Default()
	}

	w := &PopupWindow{
		window: gtk.NewWindow(),
		logger: logger,
	}
	w.window.SetApplication(app)
	w.window.SetTitle("volctl")
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDeletable(false)
	w.window.SetDefaultSize(cfg.Popup.Width, cfg.Popup.Height)
	w.window.AddCSSClass("volctl-popup")

	w.Volume = NewVolumeScale(cfg.Volume.AllowExtra)
	w.Streams = NewStreamList(cfg.Volume.AllowExtra)

	content := gtk.NewBox(gtk.OrientationHorizontal, 0)
	content.Append(w.Volume.Widget())
	content.Append(w.Streams.Widget())
	w.Streams.Widget().SetVisible(cfg.Popup.ShowStreams)
	w.window.SetChild(content)

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			w.Hide()
			return true
		}
		return false
	})
	w.window.AddController(keys)

	return w
}

// GTK returns the underlying window.
func (w *PopupWindow) GTK() *gtk.Window {
	return w.window
}

func (w *PopupWindow) Realized() bool {
	return w.window.Realized()
}

// XID returns the X11 window id of the realized surface.
func (w *PopupWindow) XID() (uint32, error) {
	return surfaceXID(w.window)
}

func surfaceXID(window *gtk.Window) (uint32, error) {
	if !window.Realized() {
		return 0, xidError(errNotRealized)
	}
	surface := window.Surface()
	if surface == nil {
		return 0, xidError(errNotRealized)
	}
	x11, ok := glib.BaseObject(surface).Cast().(*gdkx11.X11Surface)
	if !ok {
		return 0, xidError(errNotX11)
	}
	return uint32(x11.XID()), nil
}

func (w *PopupWindow) ConnectRealize(f func()) {
	w.window.ConnectRealize(f)
}

func (w *PopupWindow) ConnectMap(f func()) {
	w.window.ConnectMap(f)
}

func (w *PopupWindow) ConnectHide(f func()) {
	w.window.ConnectHide(f)
}

// ConnectPointer reports the pointer entering and leaving the window.
func (w *PopupWindow) ConnectPointer(enter, leave func()) {
	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) { enter() })
	motion.ConnectLeave(leave)
	w.window.AddController(motion)
}

// ShowStreams shows or hides the per-application sliders.
func (w *PopupWindow) ShowStreams(show bool) {
	w.Streams.Widget().SetVisible(show)
}

func (w *PopupWindow) Present() {
	w.window.Present()
}

func (w *PopupWindow) Hide() {
	w.window.SetVisible(false)
}

func (w *PopupWindow) Destroy() {
	w.window.Destroy()
}

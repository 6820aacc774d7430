package display

import (
	"fmt"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/tray"
)

// Base overlay metrics at 100% scale.
const (
	overlayBaseSize     = 200
	overlayBaseFontSize = 32
)

// OverlayWindow is the on-screen volume display. It takes no input.
type OverlayWindow struct {
	window *gtk.Window
	icon   *gtk.Image
	label  *gtk.Label
	level  *gtk.LevelBar

	size     int
	fontSize int
}

// NewOverlayWindow builds the overlay for app, sized by osd.scale.
func NewOverlayWindow(app *gtk.Application, cfg *config.Config) *OverlayWindow {
	scale := float64(cfg.OSD.Scale) / 100
	w := &OverlayWindow{
		window:   gtk.NewWindow(),
		size:     int(overlayBaseSize * scale),
		fontSize: int(overlayBaseFontSize * scale),
	}
	w.window.SetApplication(app)
	w.window.SetTitle("volctl-osd")
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDeletable(false)
	w.window.SetCanTarget(false)
	w.window.SetCanFocus(false)
	w.window.SetDefaultSize(w.size, w.size)
	w.window.AddCSSClass("volctl-osd")

	w.icon = gtk.NewImageFromIconName(tray.IconName(mixer.State{}))
	w.icon.SetPixelSize(w.size / 3)
	w.icon.SetVExpand(true)

	w.label = gtk.NewLabel("")
	w.label.AddCSSClass("volctl-osd-label")

	w.level = gtk.NewLevelBarForInterval(0, float64(mixer.Limit(cfg.Volume.AllowExtra)))
	w.level.SetMode(gtk.LevelBarModeContinuous)

	box := gtk.NewBox(gtk.OrientationVertical, 12)
	box.Append(w.icon)
	box.Append(w.label)
	box.Append(w.level)
	w.window.SetChild(box)

	return w
}

// SetState shows state. A muted state is dimmed by the theme.
func (w *OverlayWindow) SetState(state mixer.State) {
	w.icon.SetFromIconName(tray.IconName(state))
	w.label.SetMarkup(fmt.Sprintf(`<span font_size="%dpt">%d %%</span>`, w.fontSize, state.Percent()))
	w.level.SetValue(float64(state.Volume))
	if state.Muted {
		w.window.AddCSSClass("muted")
	} else {
		w.window.RemoveCSSClass("muted")
	}
}

// GTK returns the underlying window for the layer-shell adapter.
func (w *OverlayWindow) GTK() *gtk.Window {
	return w.window
}

func (w *OverlayWindow) SetOpacity(opacity float64) {
	w.window.SetOpacity(opacity)
}

// Size returns the configured size, which is also the size before the
// first allocation.
func (w *OverlayWindow) Size() (int, int) {
	return w.size, w.size
}

func (w *OverlayWindow) Realized() bool {
	return w.window.Realized()
}

func (w *OverlayWindow) XID() (uint32, error) {
	return surfaceXID(w.window)
}

func (w *OverlayWindow) ConnectRealize(f func()) {
	w.window.ConnectRealize(f)
}

func (w *OverlayWindow) ConnectMap(f func()) {
	w.window.ConnectMap(f)
}

func (w *OverlayWindow) Present() {
	w.window.Present()
}

func (w *OverlayWindow) Hide() {
	w.window.SetVisible(false)
}

func (w *OverlayWindow) Destroy() {
	w.window.Destroy()
}

package display

import (
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
)

// ScreenSize returns the size of the first monitor of the default display.
func ScreenSize() (int, int, bool) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return 0, 0, false
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return 0, 0, false
	}
	monitor := wrapMonitor(monitors.Item(0))
	if monitor == nil {
		return 0, 0, false
	}
	geometry := monitor.Geometry()
	return geometry.Width(), geometry.Height(), true
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// gotk4 does not expose its own wrapMonitor.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

package display

import (
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gdkwayland/v4"
	"github.com/diamondburned/gotk4/pkg/gdkx11/v4"

	"github.com/jmylchreest/volctl/internal/backend"
)

// GDKProbe inspects the default GDK display. GTK must be initialized.
func GDKProbe() backend.Evidence {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return backend.EvidenceNone
	}

	switch glib.BaseObject(display).Cast().(type) {
	case *gdkwayland.WaylandDisplay:
		return backend.EvidenceWayland
	case *gdkx11.X11Display:
		return backend.EvidenceX11
	default:
		return backend.EvidenceAmbiguous
	}
}

package placement

import (
	"fmt"
	"log/slog"

	"github.com/jmylchreest/volctl/internal/backend"
)

// Window is the set of window capabilities a Placer needs.
type Window interface {
	// Realized reports whether the native surface exists.
	Realized() bool
	// XID returns the X11 window id. It fails on non-X11 surfaces or
	// before the window is realized.
	XID() (uint32, error)
	// ConnectRealize registers f to run every time the window is realized.
	ConnectRealize(f func())
	// ConnectMap registers f to run every time the window is mapped.
	ConnectMap(f func())
}

// Scheduler runs functions later on the UI thread.
type Scheduler interface {
	IdleAdd(f func())
}

// Placer positions a popup window.
type Placer interface {
	// Attach prepares w once, before it is first shown.
	Attach(w Window)
	// Place moves w so that it appears at (x, y) where the backend allows.
	Place(w Window, x, y int)
	// Close releases backend resources.
	Close() error
}

// Deps holds what the placement strategies may need. Only the fields used
// by the selected strategy must be set.
type Deps struct {
	Scheduler  Scheduler
	Dialer     Dialer
	LayerShell LayerShell
	// Layout is the Wayland surface layout. The zero value means
	// PopupLayout.
	Layout Layout
	Logger *slog.Logger
}

type strategy func(Deps) (Placer, error)

var strategies = map[backend.Kind]strategy{
	backend.X11: func(d Deps) (Placer, error) {
		if d.Scheduler == nil {
			return nil, fmt.Errorf("x11 placer: scheduler is required")
		}
		dial := d.Dialer
		if dial == nil {
			dial = DialX11
		}
		return NewX11Placer(dial, d.Scheduler, d.Logger), nil
	},
	backend.Wayland: func(d Deps) (Placer, error) {
		if d.LayerShell == nil {
			return nil, fmt.Errorf("wayland placer: layer shell is required")
		}
		layout := d.Layout
		if len(layout.Anchors) == 0 && layout.Namespace == "" {
			layout = PopupLayout
		}
		return NewWaylandLayoutPlacer(d.LayerShell, layout, d.Logger), nil
	},
}

// New returns the Placer for the given display backend.
func New(kind backend.Kind, deps Deps) (Placer, error) {
	s, ok := strategies[kind]
	if !ok {
		return nil, fmt.Errorf("no placement strategy for backend %s", kind)
	}
	return s(deps)
}

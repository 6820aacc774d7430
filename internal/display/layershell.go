package display

import (
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volctl/internal/placement"
)

// LayerShell drives gtk4-layer-shell for windows built by this package.
// Windows of any other type are ignored.
type LayerShell struct{}

var _ placement.LayerShell = LayerShell{}

func gtkWindow(w placement.Window) (*gtk.Window, bool) {
	g, ok := w.(interface{ GTK() *gtk.Window })
	if !ok {
		return nil, false
	}
	return g.GTK(), true
}

func (LayerShell) InitForWindow(w placement.Window) {
	if win, ok := gtkWindow(w); ok {
		layershell.InitForWindow(win)
		layershell.SetKeyboardMode(win, layershell.LayerShellKeyboardModeOnDemand)
	}
}

func (LayerShell) SetNamespace(w placement.Window, namespace string) {
	if win, ok := gtkWindow(w); ok {
		layershell.SetNamespace(win, namespace)
	}
}

func (LayerShell) SetLayer(w placement.Window, layer placement.Layer) {
	if win, ok := gtkWindow(w); ok {
		layershell.SetLayer(win, layers[layer])
	}
}

func (LayerShell) AutoExclusiveZoneEnable(w placement.Window) {
	if win, ok := gtkWindow(w); ok {
		layershell.AutoExclusiveZoneEnable(win)
	}
}

func (LayerShell) SetMargin(w placement.Window, edge placement.Edge, margin int) {
	if win, ok := gtkWindow(w); ok {
		layershell.SetMargin(win, edges[edge], margin)
	}
}

func (LayerShell) SetAnchor(w placement.Window, edge placement.Edge, anchored bool) {
	if win, ok := gtkWindow(w); ok {
		layershell.SetAnchor(win, edges[edge], anchored)
	}
}

var layers = map[placement.Layer]layershell.LayerShellLayer{
	placement.LayerBackground: layershell.LayerShellLayerBackground,
	placement.LayerBottom:     layershell.LayerShellLayerBottom,
	placement.LayerTop:        layershell.LayerShellLayerTop,
	placement.LayerOverlay:    layershell.LayerShellLayerOverlay,
}

var edges = map[placement.Edge]layershell.LayerShellEdge{
	placement.EdgeLeft:   layershell.LayerShellEdgeLeft,
	placement.EdgeRight:  layershell.LayerShellEdgeRight,
	placement.EdgeTop:    layershell.LayerShellEdgeTop,
	placement.EdgeBottom: layershell.LayerShellEdgeBottom,
}

package placement

import (
	"log/slog"
	"slices"
)

// Layer is a layer-shell stacking layer.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

// Edge is a screen edge for anchors and margins.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Namespace is the layer-shell namespace of the popup surface.
const Namespace = "volctl"

// PopupMargin is the distance in pixels from the anchored screen edges.
const PopupMargin = 32

// Layout places a layer surface by anchors and a margin from every
// anchored edge. A surface with no anchors is centered.
type Layout struct {
	Namespace string
	Anchors   []Edge
	Margin    int
}

// PopupLayout anchors the popup to the top-right corner.
var PopupLayout = Layout{Namespace: Namespace, Anchors: []Edge{EdgeRight, EdgeTop}, Margin: PopupMargin}

// anchorOrder is the order in which all four anchors are (re)set.
var anchorOrder = []Edge{EdgeTop, EdgeRight, EdgeLeft, EdgeBottom}

// LayerShell is the wlr-layer-shell surface API. It has no way to set an
// absolute position; surfaces are placed only by anchors and margins.
type LayerShell interface {
	InitForWindow(w Window)
	SetNamespace(w Window, namespace string)
	SetLayer(w Window, layer Layer)
	AutoExclusiveZoneEnable(w Window)
	SetMargin(w Window, edge Edge, margin int)
	SetAnchor(w Window, edge Edge, anchored bool)
}

// WaylandPlacer anchors a surface as an overlay according to its layout.
type WaylandPlacer struct {
	shell    LayerShell
	layout   Layout
	logger   *slog.Logger
	attached bool
}

// NewWaylandPlacer creates a placer using shell and PopupLayout.
func NewWaylandPlacer(shell LayerShell, logger *slog.Logger) *WaylandPlacer {
	return NewWaylandLayoutPlacer(shell, PopupLayout, logger)
}

// NewWaylandLayoutPlacer creates a placer using shell and layout.
func NewWaylandLayoutPlacer(shell LayerShell, layout Layout, logger *slog.Logger) *WaylandPlacer {
	if logger == nil {
		logger = slog.Default()
	}
	if layout.Namespace == "" {
		layout.Namespace = Namespace
	}
	return &WaylandPlacer{shell: shell, layout: layout, logger: logger}
}

// Attach turns w into a layer surface. It must run before w is realized.
func (p *WaylandPlacer) Attach(w Window) {
	if p.attached {
		return
	}
	p.attached = true
	p.shell.InitForWindow(w)
	p.shell.SetNamespace(w, p.layout.Namespace)
}

// Place anchors w by the layout. The coordinates are ignored.
func (p *WaylandPlacer) Place(w Window, x, y int) {
	p.shell.SetLayer(w, LayerOverlay)
	p.shell.AutoExclusiveZoneEnable(w)

	for _, edge := range p.layout.Anchors {
		p.shell.SetMargin(w, edge, p.layout.Margin)
	}
	for _, edge := range anchorOrder {
		p.shell.SetAnchor(w, edge, slices.Contains(p.layout.Anchors, edge))
	}

	p.logger.Debug("layer surface anchored",
		"namespace", p.layout.Namespace, "anchors", p.layout.Anchors,
		"requested_x", x, "requested_y", y)
}

// Close is a no-op for layer surfaces.
func (p *WaylandPlacer) Close() error {
	return nil
}

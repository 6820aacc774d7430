// Package placement positions the popup window next to the tray icon.
//
// Two strategies exist. On X11 the window is turned into a sticky,
// always-on-top utility window through EWMH properties and moved to the
// click position with ConfigureWindow. On Wayland absolute positioning is
// not available, so the window becomes a layer-shell overlay anchored to
// the top-right corner of the output.
//
// All Placer methods must be called from the GTK main loop.
package placement

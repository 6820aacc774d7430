// Package display holds the GTK side of volctl: the popup window with its
// master and per-application sliders, the on-screen volume overlay, the
// layer-shell and main-loop adapters used by the placement and popup
// packages, and display backend probing through GDK.
package display

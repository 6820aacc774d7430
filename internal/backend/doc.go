// Package backend classifies the running display server as X11 or Wayland.
// The result is resolved once per process and never changes afterwards.
package backend

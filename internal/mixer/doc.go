// Package mixer is the boundary to the audio server. It reports the active
// sink's volume and mute state and the playing application streams, and
// carries change requests to the server off the UI thread.
//
// Pulse talks the native protocol and is told about changes by the
// server. Pactl shells out to pactl and is polled; it has no streams.
package mixer

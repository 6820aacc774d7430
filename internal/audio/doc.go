// Package audio plays the short feedback sound on volume wheel changes.
// It uses the beep library to play a WAV, OGG or MP3 file, or a
// synthesized click when no file is configured.
package audio

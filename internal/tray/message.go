package tray

import "fmt"

// Kind identifies a tray message.
type Kind int

const (
	// KindActivate is a primary click on the icon.
	KindActivate Kind = iota
	// KindScroll is a vertical wheel movement over the icon.
	KindScroll
	// KindMute asks to toggle the sink mute flag.
	KindMute
	// KindPreferences opens the preferences.
	KindPreferences
	// KindExternalMixer launches the external mixer program.
	KindExternalMixer
	// KindAbout shows information about volctl.
	KindAbout
	// KindQuit ends the process.
	KindQuit
)

var kindNames = map[Kind]string{
	KindActivate:      "activate",
	KindScroll:        "scroll",
	KindMute:          "mute",
	KindPreferences:   "preferences",
	KindExternalMixer: "external-mixer",
	KindAbout:         "about",
	KindQuit:          "quit",
}

// String returns the message kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Message is a single user action on the tray icon.
// X and Y are only set for KindActivate, Delta only for KindScroll.
type Message struct {
	Kind  Kind
	X, Y  int
	Delta int
}

// Activate returns an activation message at the given screen coordinates.
func Activate(x, y int) Message {
	return Message{Kind: KindActivate, X: x, Y: y}
}

// Scroll returns a vertical scroll message.
func Scroll(delta int) Message {
	return Message{Kind: KindScroll, Delta: delta}
}

// Simple returns a message that carries no payload.
func Simple(kind Kind) Message {
	return Message{Kind: kind}
}

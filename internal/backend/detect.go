package backend

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/volctl/internal/config"
)

// Kind identifies a display server protocol.
type Kind int

const (
	// X11 is the X Window System.
	X11 Kind = iota
	// Wayland is a Wayland compositor.
	Wayland
)

// String returns the lowercase protocol name.
func (k Kind) String() string {
	switch k {
	case Wayland:
		return "wayland"
	default:
		return "x11"
	}
}

// ErrUnresolvableBackend is returned when no display server can be found at all.
var ErrUnresolvableBackend = errors.New("no X11 or Wayland display available")

// Evidence is what a single probe learned about the display server.
type Evidence int

const (
	// EvidenceNone means the probe found no display at all.
	EvidenceNone Evidence = iota
	// EvidenceAmbiguous means a display exists but its protocol is unknown.
	EvidenceAmbiguous
	// EvidenceX11 means the display is X11.
	EvidenceX11
	// EvidenceWayland means the display is Wayland.
	EvidenceWayland
)

// Probe inspects one source of display information.
type Probe func() Evidence

// Detector resolves the display backend once and caches the result.
type Detector struct {
	override config.Backend
	probes   []Probe
	logger   *slog.Logger

	once sync.Once
	kind Kind
	err  error
}

// NewDetector creates a detector. Probes are consulted in order; the first
// conclusive one wins. An override other than "auto" skips probing.
func NewDetector(override config.Backend, logger *slog.Logger, probes ...Probe) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if override == "" {
		override = config.BackendAuto
	}
	return &Detector{
		override: override,
		probes:   probes,
		logger:   logger,
	}
}

// Detect returns the display backend. Only the first call does any work.
func (d *Detector) Detect() (Kind, error) {
	d.once.Do(func() {
		d.kind, d.err = d.resolve()
		if d.err == nil {
			d.logger.Debug("display backend resolved", "backend", d.kind.String())
		}
	})
	return d.kind, d.err
}

func (d *Detector) resolve() (Kind, error) {
	switch d.override {
	case config.BackendX11:
		return X11, nil
	case config.BackendWayland:
		return Wayland, nil
	}

	ambiguous := false
	for _, probe := range d.probes {
		switch probe() {
		case EvidenceWayland:
			return Wayland, nil
		case EvidenceX11:
			return X11, nil
		case EvidenceAmbiguous:
			ambiguous = true
		}
	}

	if ambiguous {
		// A display exists but nothing identified it. XWayland and most
		// legacy sessions still speak X11, so that is the fallback.
		d.logger.Warn("display backend is ambiguous, assuming x11")
		return X11, nil
	}

	return X11, ErrUnresolvableBackend
}

// EnvProbe classifies the session from environment variables.
func EnvProbe(getenv func(string) string) Probe {
	return func() Evidence {
		if getenv("WAYLAND_DISPLAY") != "" {
			return EvidenceWayland
		}
		if getenv("DISPLAY") != "" {
			return EvidenceX11
		}
		switch strings.ToLower(getenv("XDG_SESSION_TYPE")) {
		case "wayland":
			// Session claims Wayland but exports no socket.
			return EvidenceAmbiguous
		case "x11":
			return EvidenceAmbiguous
		}
		return EvidenceNone
	}
}

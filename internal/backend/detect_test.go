package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/config"
)

func fixed(e Evidence) Probe {
	return func() Evidence { return e }
}

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		override config.Backend
		probes   []Probe
		want     Kind
		wantErr  error
	}{
		{"wayland probe", config.BackendAuto, []Probe{fixed(EvidenceWayland)}, Wayland, nil},
		{"x11 probe", config.BackendAuto, []Probe{fixed(EvidenceX11)}, X11, nil},
		{"first conclusive wins", config.BackendAuto, []Probe{fixed(EvidenceAmbiguous), fixed(EvidenceWayland), fixed(EvidenceX11)}, Wayland, nil},
		{"ambiguous falls back to x11", config.BackendAuto, []Probe{fixed(EvidenceAmbiguous), fixed(EvidenceNone)}, X11, nil},
		{"nothing is fatal", config.BackendAuto, []Probe{fixed(EvidenceNone)}, X11, ErrUnresolvableBackend},
		{"no probes is fatal", config.BackendAuto, nil, X11, ErrUnresolvableBackend},
		{"override wayland", config.BackendWayland, []Probe{fixed(EvidenceX11)}, Wayland, nil},
		{"override x11", config.BackendX11, []Probe{fixed(EvidenceNone)}, X11, nil},
		{"empty override means auto", "", []Probe{fixed(EvidenceWayland)}, Wayland, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(tt.override, nil, tt.probes...)
			got, err := d.Detect()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Cached(t *testing.T) {
	calls := 0
	probe := func() Evidence {
		calls++
		return EvidenceWayland
	}

	d := NewDetector(config.BackendAuto, nil, probe)
	for range 3 {
		got, err := d.Detect()
		require.NoError(t, err)
		assert.Equal(t, Wayland, got)
	}
	assert.Equal(t, 1, calls)
}

func TestEnvProbe(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want Evidence
	}{
		{"wayland socket", map[string]string{"WAYLAND_DISPLAY": "wayland-0", "DISPLAY": ":0"}, EvidenceWayland},
		{"x display", map[string]string{"DISPLAY": ":0"}, EvidenceX11},
		{"session type only", map[string]string{"XDG_SESSION_TYPE": "x11"}, EvidenceAmbiguous},
		{"tty", map[string]string{"XDG_SESSION_TYPE": "tty"}, EvidenceNone},
		{"empty", map[string]string{}, EvidenceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnvProbe(envOf(tt.vars))())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "x11", X11.String())
	assert.Equal(t, "wayland", Wayland.String())
}

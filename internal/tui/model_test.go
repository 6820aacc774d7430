package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/ui"
)

type fakeBackend struct {
	state   mixer.State
	deltas  []int
	limits  []uint32
	failSet error
}

func (b *fakeBackend) State(context.Context) (mixer.State, error) { return b.state, nil }

func (b *fakeBackend) ChangeVolume(_ context.Context, delta int, limit uint32) error {
	b.deltas = append(b.deltas, delta)
	b.limits = append(b.limits, limit)
	b.state.Volume = uint32(int(b.state.Volume) + delta)
	return nil
}

func (b *fakeBackend) SetVolume(_ context.Context, volume uint32) error {
	b.state.Volume = volume
	return nil
}

func (b *fakeBackend) SetMuted(_ context.Context, muted bool) error {
	if b.failSet != nil {
		return b.failSet
	}
	b.state.Muted = muted
	return nil
}

func testOptions() Options {
	return Options{Options: ui.Options{WheelStep: 10, Rounding: config.RoundHalfAway}}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting command's message back in.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	return next.(Model)
}

func TestModel_VolumeKeys(t *testing.T) {
	b := &fakeBackend{state: mixer.State{Volume: 32768}}
	m := New(b, testOptions())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = press(t, m, runes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})

	assert.Equal(t, []int{6554, -6554, 4 * 6554}, b.deltas)
	assert.Equal(t, mixer.MaxNaturalVolume, b.limits[0])
	assert.Equal(t, uint32(32768+4*6554), m.state.Volume)
	assert.True(t, m.loaded)
}

func TestModel_AllowExtraLimit(t *testing.T) {
	b := &fakeBackend{}
	opts := testOptions()
	opts.AllowExtra = true
	press(t, New(b, opts), runes("+"))
	assert.Equal(t, []uint32{mixer.MaxScaleVolume}, b.limits)
}

func TestModel_Mute(t *testing.T) {
	b := &fakeBackend{state: mixer.State{Volume: 1000}}
	m := New(b, testOptions())

	m = press(t, m, runes("m"))
	assert.True(t, m.state.Muted)
	assert.Contains(t, m.View(), "muted")

	m = press(t, m, runes("m"))
	assert.False(t, m.state.Muted)
}

func TestModel_ErrorKeepsState(t *testing.T) {
	b := &fakeBackend{state: mixer.State{Volume: 65536}, failSet: errors.New("pactl exploded")}
	m := New(b, testOptions())
	next, _ := m.Update(m.fetch())
	m = next.(Model)

	m = press(t, m, runes("m"))
	assert.Equal(t, uint32(65536), m.state.Volume)
	assert.False(t, m.state.Muted)
	assert.Contains(t, m.View(), "pactl exploded")
}

func TestModel_Mixer(t *testing.T) {
	var launched []string
	opts := testOptions()
	opts.MixerCommand = []string{"pavucontrol", "-t", "3"}
	opts.Launch = func(args []string) error {
		launched = args
		return nil
	}

	press(t, New(&fakeBackend{}, opts), runes("x"))
	assert.Equal(t, []string{"pavucontrol", "-t", "3"}, launched)
}

func TestModel_Quit(t *testing.T) {
	m := New(&fakeBackend{}, testOptions())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ViewBeforeLoad(t *testing.T) {
	m := New(&fakeBackend{}, testOptions())
	assert.Contains(t, m.View(), "reading sink state")
}

func TestModel_HelpToggle(t *testing.T) {
	m := New(&fakeBackend{}, testOptions())
	next, _ := m.Update(runes("?"))
	assert.True(t, next.(Model).showHelp)
}

func TestBarFraction(t *testing.T) {
	assert.InDelta(t, 0.5, barFraction(mixer.State{Volume: 32768}, false), 1e-9)
	assert.InDelta(t, 1.0, barFraction(mixer.State{Volume: 90000}, false), 1e-9)
	assert.InDelta(t, 90000.0/98304.0, barFraction(mixer.State{Volume: 90000}, true), 1e-9)
}

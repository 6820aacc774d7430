package mixer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVolume = `Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32770 /  50% / -18.06 dB
        balance 0.00
`

// fakeRunner records commands and answers from a script.
type fakeRunner struct {
	mu       sync.Mutex
	volume   string
	mute     string
	err      error
	commands []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	if f.err != nil {
		return nil, f.err
	}
	switch args[0] {
	case "get-sink-volume":
		return []byte(f.volume), nil
	case "get-sink-mute":
		return []byte(f.mute), nil
	}
	return nil, nil
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    uint32
		wantErr bool
	}{
		{"stereo average", sampleVolume, 32769, false},
		{"mono", "Volume: mono: 65536 / 100% / 0.00 dB\n", 65536, false},
		{"above natural", "Volume: front-left: 98304 / 150% / 10.57 dB,   front-right: 98304 / 150% / 10.57 dB\n", 98304, false},
		{"garbage", "No such entity\n", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVolume([]byte(tt.out))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMute(t *testing.T) {
	muted, err := parseMute([]byte("Mute: yes\n"))
	require.NoError(t, err)
	assert.True(t, muted)

	muted, err = parseMute([]byte("Mute: no\n"))
	require.NoError(t, err)
	assert.False(t, muted)

	_, err = parseMute([]byte("Stumm: ja"))
	assert.ErrorIs(t, err, errMuteOutput)
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		name    string
		current uint32
		delta   int
		limit   uint32
		want    uint32
	}{
		{"raise", 32768, 6554, MaxNaturalVolume, 39322},
		{"raise clamped", 62000, 6554, MaxNaturalVolume, MaxNaturalVolume},
		{"raise extra", 62000, 6554, MaxScaleVolume, 68554},
		{"lower", 32768, -6554, MaxNaturalVolume, 26214},
		{"lower clamped at zero", 3000, -6554, MaxNaturalVolume, 0},
		{"lower above limit", 90000, -6554, MaxNaturalVolume, 83446},
		{"raise above limit stays", 90000, 6554, MaxNaturalVolume, 90000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampVolume(tt.current, tt.delta, tt.limit))
		})
	}
}

func TestPactl_State(t *testing.T) {
	f := &fakeRunner{volume: sampleVolume, mute: "Mute: yes\n"}
	p := NewPactl("@DEFAULT_SINK@", f.run)

	state, err := p.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Volume: 32769, Muted: true}, state)
	assert.Equal(t, []string{
		"pactl get-sink-volume @DEFAULT_SINK@",
		"pactl get-sink-mute @DEFAULT_SINK@",
	}, f.commands)
}

func TestPactl_ChangeVolume(t *testing.T) {
	f := &fakeRunner{volume: "Volume: mono: 32768 / 50% / -18.06 dB\n", mute: "Mute: no\n"}
	p := NewPactl("sink0", f.run)

	require.NoError(t, p.ChangeVolume(context.Background(), 6554, MaxNaturalVolume))
	assert.Equal(t, "pactl set-sink-volume sink0 39322", f.commands[len(f.commands)-1])
}

func TestPactl_ChangeVolumeNoop(t *testing.T) {
	f := &fakeRunner{volume: "Volume: mono: 65536 / 100% / 0.00 dB\n", mute: "Mute: no\n"}
	p := NewPactl("sink0", f.run)

	require.NoError(t, p.ChangeVolume(context.Background(), 0, MaxNaturalVolume))
	assert.Empty(t, f.commands)

	require.NoError(t, p.ChangeVolume(context.Background(), 100, MaxNaturalVolume))
	for _, c := range f.commands {
		assert.NotContains(t, c, "set-sink-volume")
	}
}

func TestPactl_SetVolumeIsAbsolute(t *testing.T) {
	f := &fakeRunner{volume: "Volume: mono: 32768 / 50% / -18.06 dB\n", mute: "Mute: no\n"}
	p := NewPactl("sink0", f.run)

	require.NoError(t, p.SetVolume(context.Background(), 40000))
	assert.Equal(t, []string{"pactl set-sink-volume sink0 40000"}, f.commands)
}

func TestScaleChannels(t *testing.T) {
	tests := []struct {
		name    string
		volumes []uint32
		target  uint32
		want    []uint32
	}{
		{"keeps balance", []uint32{20000, 40000}, 60000, []uint32{40000, 80000}},
		{"silent channels", []uint32{0, 0}, 1000, []uint32{1000, 1000}},
		{"mono", []uint32{32768}, 65536, []uint32{65536}},
		{"to zero", []uint32{100, 300}, 0, []uint32{0, 0}},
		{"no channels", nil, 100, []uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scaleChannels(tt.volumes, tt.target))
		})
	}
}

func TestPactl_SetMuted(t *testing.T) {
	f := &fakeRunner{}
	p := NewPactl("sink0", f.run)

	require.NoError(t, p.SetMuted(context.Background(), true))
	require.NoError(t, p.SetMuted(context.Background(), false))
	assert.Equal(t, []string{"pactl set-sink-mute sink0 1", "pactl set-sink-mute sink0 0"}, f.commands)
}

func TestPactl_Errors(t *testing.T) {
	f := &fakeRunner{err: errors.New("connection refused")}
	p := NewPactl("sink0", f.run)

	_, err := p.State(context.Background())
	assert.Error(t, err)
	assert.Error(t, p.ChangeVolume(context.Background(), 10, MaxNaturalVolume))
}

func TestStatePercent(t *testing.T) {
	assert.Equal(t, 0, State{}.Percent())
	assert.Equal(t, 50, State{Volume: 32768}.Percent())
	assert.Equal(t, 100, State{Volume: MaxNaturalVolume}.Percent())
	assert.Equal(t, 150, State{Volume: MaxScaleVolume}.Percent())
	assert.Equal(t, "50% (muted)", State{Volume: 32768, Muted: true}.String())
}

func TestLimit(t *testing.T) {
	assert.Equal(t, MaxNaturalVolume, Limit(false))
	assert.Equal(t, uint32(98304), Limit(true))
}

// scriptedBackend returns states from a list, repeating the last one.
type scriptedBackend struct {
	mu     sync.Mutex
	states []State
}

func (b *scriptedBackend) State(context.Context) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.states[0]
	if len(b.states) > 1 {
		b.states = b.states[1:]
	}
	return s, nil
}

func (b *scriptedBackend) ChangeVolume(context.Context, int, uint32) error { return nil }
func (b *scriptedBackend) SetVolume(context.Context, uint32) error         { return nil }
func (b *scriptedBackend) SetMuted(context.Context, bool) error            { return nil }

func TestWatcher_ReportsChangesOnly(t *testing.T) {
	backend := &scriptedBackend{states: []State{
		{Volume: 100},
		{Volume: 100},
		{Volume: 200},
		{Volume: 200, Muted: true},
	}}

	w := NewWatcher(backend, 5*time.Millisecond, nil)

	var mu sync.Mutex
	var seen []State
	w.SetChangeCallback(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{{Volume: 100}, {Volume: 200}, {Volume: 200, Muted: true}}, seen)

	last, ok := w.Last()
	assert.True(t, ok)
	assert.Equal(t, State{Volume: 200, Muted: true}, last)
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w := NewWatcher(&scriptedBackend{states: []State{{}}}, time.Millisecond, nil)
	w.Stop()
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

type flakyBackend struct {
	scriptedBackend
	errs []error
}

func (b *flakyBackend) State(ctx context.Context) (State, error) {
	if len(b.errs) > 0 {
		err := b.errs[0]
		b.errs = b.errs[1:]
		if err != nil {
			return State{}, err
		}
	}
	return b.scriptedBackend.State(ctx)
}

func TestWatcher_ReportsFailuresOncePerOutage(t *testing.T) {
	down := errors.New("connection refused")
	b := &flakyBackend{
		scriptedBackend: scriptedBackend{states: []State{{Volume: 1}}},
		errs:            []error{down, down, nil, down},
	}
	w := NewWatcher(b, time.Second, nil)

	var errs []error
	w.SetErrorCallback(func(err error) { errs = append(errs, err) })

	ctx := context.Background()
	for range 4 {
		w.poll(ctx)
	}

	assert.Equal(t, []error{down, down}, errs)
	last, ok := w.Last()
	assert.True(t, ok)
	assert.Equal(t, State{Volume: 1}, last)
}

// eventBackend is a scripted backend that announces changes.
type eventBackend struct {
	scriptedBackend
	events  chan struct{}
	subErr  error
	streams [][]Stream
}

func (b *eventBackend) Subscribe(context.Context) (<-chan struct{}, error) {
	if b.subErr != nil {
		return nil, b.subErr
	}
	return b.events, nil
}

func (b *eventBackend) Streams(context.Context) ([]Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.streams[0]
	if len(b.streams) > 1 {
		b.streams = b.streams[1:]
	}
	return s, nil
}

func (b *eventBackend) SetStreamVolume(context.Context, uint32, uint32) error { return nil }
func (b *eventBackend) SetStreamMuted(context.Context, uint32, bool) error    { return nil }

func TestWatcher_SubscribedReadsOnEventsOnly(t *testing.T) {
	b := &eventBackend{
		scriptedBackend: scriptedBackend{states: []State{{Volume: 1}, {Volume: 2}}},
		events:          make(chan struct{}, 1),
		streams:         [][]Stream{nil},
	}
	// A poll interval this short would churn through the script if the
	// watcher were polling.
	w := NewWatcher(b, time.Millisecond, nil)

	var mu sync.Mutex
	var seen []State
	w.SetChangeCallback(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)
	}

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, count())

	b.events <- struct{}{}
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{{Volume: 1}, {Volume: 2}}, seen)
}

func TestWatcher_FallsBackToPollingWithoutSubscription(t *testing.T) {
	b := &eventBackend{
		scriptedBackend: scriptedBackend{states: []State{{Volume: 1}, {Volume: 2}}},
		subErr:          errors.New("protocol not supported"),
		streams:         [][]Stream{nil},
	}
	w := NewWatcher(b, 5*time.Millisecond, nil)

	changed := make(chan State, 4)
	w.SetChangeCallback(func(s State) { changed <- s })

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for _, want := range []State{{Volume: 1}, {Volume: 2}} {
		select {
		case got := <-changed:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("polling did not report the change")
		}
	}
}

func TestWatcher_ReportsStreamChanges(t *testing.T) {
	firefox := Stream{Index: 4, Name: "Firefox", Volume: 1000}
	b := &eventBackend{
		scriptedBackend: scriptedBackend{states: []State{{Volume: 1}}},
		streams: [][]Stream{
			{firefox},
			{firefox},
			{firefox, {Index: 9, Name: "mpv"}},
		},
	}
	w := NewWatcher(b, time.Second, nil)

	var seen [][]Stream
	w.SetStreamsCallback(func(s []Stream) { seen = append(seen, s) })

	ctx := context.Background()
	for range 3 {
		w.poll(ctx)
	}

	assert.Equal(t, [][]Stream{
		{firefox},
		{firefox, {Index: 9, Name: "mpv"}},
	}, seen)
}

func TestWatcher_StreamsNeedCallbackAndBackend(t *testing.T) {
	// scriptedBackend has no streams; nothing is listed or reported.
	w := NewWatcher(&scriptedBackend{states: []State{{}}}, time.Second, nil)
	called := false
	w.SetStreamsCallback(func([]Stream) { called = true })
	w.poll(context.Background())
	assert.False(t, called)
}

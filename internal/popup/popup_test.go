package popup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/placement"
)

type fakeWindow struct {
	presents  int
	hides     int
	destroyed bool
	onHide    []func()
	enter     func()
	leave     func()
}

func (w *fakeWindow) ConnectPointer(enter, leave func()) {
	w.enter = enter
	w.leave = leave
}

func (w *fakeWindow) Realized() bool          { return true }
func (w *fakeWindow) XID() (uint32, error)    { return 1, nil }
func (w *fakeWindow) ConnectRealize(f func()) {}
func (w *fakeWindow) ConnectMap(f func())     {}
func (w *fakeWindow) Present()                { w.presents++ }
func (w *fakeWindow) Destroy()                { w.destroyed = true }
func (w *fakeWindow) ConnectHide(f func())    { w.onHide = append(w.onHide, f) }

func (w *fakeWindow) Hide() {
	w.hides++
	for _, f := range w.onHide {
		f()
	}
}

type placeCall struct{ x, y int }

type fakePlacer struct {
	attached int
	places   []placeCall
}

func (p *fakePlacer) Attach(w placement.Window)          { p.attached++ }
func (p *fakePlacer) Place(w placement.Window, x, y int) { p.places = append(p.places, placeCall{x, y}) }
func (p *fakePlacer) Close() error                       { return nil }

func newTestController(opts Options) (*Controller, *fakeWindow, *fakePlacer, *int) {
	w := &fakeWindow{}
	placer := &fakePlacer{}
	built := 0
	factory := func() (Window, error) {
		built++
		return w, nil
	}
	return NewController(factory, placer, opts, nil), w, placer, &built
}

func TestController_ShowThenHide(t *testing.T) {
	c, w, placer, built := newTestController(Options{})
	assert.Equal(t, Hidden, c.Visibility())

	require.NoError(t, c.ToggleOrMove(100, 20))
	assert.Equal(t, Visible, c.Visibility())
	assert.Equal(t, []placeCall{{100, 20}}, placer.places)
	assert.Equal(t, 1, w.presents)

	require.NoError(t, c.ToggleOrMove(500, 500))
	assert.Equal(t, Hidden, c.Visibility())
	assert.Equal(t, 1, w.hides)
	assert.Len(t, placer.places, 1, "hiding ignores coordinates")

	assert.Equal(t, 1, *built)
	assert.Equal(t, 1, placer.attached)
}

func TestController_EvenActivationsEndHidden(t *testing.T) {
	c, w, placer, built := newTestController(Options{})

	for i := 0; i < 6; i++ {
		require.NoError(t, c.ToggleOrMove(i, i))
	}
	assert.Equal(t, Hidden, c.Visibility())
	assert.Equal(t, 3, w.presents)
	assert.Equal(t, 3, w.hides)
	assert.Equal(t, []placeCall{{0, 0}, {2, 2}, {4, 4}}, placer.places)
	assert.Equal(t, 1, *built, "window built once")
	assert.Equal(t, 1, placer.attached, "window attached once")
}

func TestController_ExternalHideKeepsStateTruthful(t *testing.T) {
	c, w, placer, _ := newTestController(Options{})

	require.NoError(t, c.ToggleOrMove(1, 1))
	w.Hide()
	assert.Equal(t, Hidden, c.Visibility())

	require.NoError(t, c.ToggleOrMove(2, 2))
	assert.Equal(t, Visible, c.Visibility())
	assert.Equal(t, []placeCall{{1, 1}, {2, 2}}, placer.places)
}

func TestController_FactoryError(t *testing.T) {
	placer := &fakePlacer{}
	c := NewController(func() (Window, error) { return nil, errors.New("no display") }, placer, Options{}, nil)

	err := c.ToggleOrMove(0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
	assert.Equal(t, Hidden, c.Visibility())
	assert.Empty(t, placer.places)
}

func TestController_Destroy(t *testing.T) {
	c, w, _, _ := newTestController(Options{})

	require.NoError(t, c.ToggleOrMove(1, 1))
	c.Destroy()
	c.Destroy()

	assert.True(t, w.destroyed)
	assert.Equal(t, Hidden, c.Visibility())
	assert.ErrorIs(t, c.ToggleOrMove(1, 1), ErrDestroyed)
}

func TestController_DestroyBeforeFirstShow(t *testing.T) {
	c, w, _, built := newTestController(Options{})

	c.Destroy()
	assert.False(t, w.destroyed)
	assert.Equal(t, 0, *built)
}

func TestController_ClampOptIn(t *testing.T) {
	screen := func() (int, int, bool) { return 1920, 1080, true }

	c, _, placer, _ := newTestController(Options{Width: 64, Height: 240, Screen: screen})
	require.NoError(t, c.ToggleOrMove(1900, 1070))
	assert.Equal(t, placeCall{1900, 1070}, placer.places[0], "coordinates pass through unclamped by default")

	c, _, placer, _ = newTestController(Options{Clamp: true, Width: 64, Height: 240, Screen: screen})
	require.NoError(t, c.ToggleOrMove(1900, 1070))
	assert.Equal(t, placeCall{1856, 840}, placer.places[0])

	c, _, placer, _ = newTestController(Options{Clamp: true, Width: 64, Height: 240, Screen: screen})
	require.NoError(t, c.ToggleOrMove(-5, -9))
	assert.Equal(t, placeCall{0, 0}, placer.places[0])
}

func TestController_ClampWithoutScreenInfo(t *testing.T) {
	screen := func() (int, int, bool) { return 0, 0, false }
	c, _, placer, _ := newTestController(Options{Clamp: true, Width: 64, Height: 240, Screen: screen})

	require.NoError(t, c.ToggleOrMove(3000, 3000))
	assert.Equal(t, placeCall{3000, 3000}, placer.places[0])
}

// fakeTimers holds scheduled callbacks until the test fires them.
type fakeTimers struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) func() {
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return func() { t.stopped = true }
}

// armed returns the scheduled callbacks that have neither run nor been
// stopped.
func (ft *fakeTimers) armed() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the only armed callback.
func (ft *fakeTimers) fire(t *testing.T) time.Duration {
	t.Helper()
	armed := ft.armed()
	require.Len(t, armed, 1)
	armed[0].fired = true
	armed[0].f()
	return armed[0].d
}

func autoCloseOptions(timers *fakeTimers) Options {
	return Options{AutoClose: true, Timeout: 3 * time.Second, Timers: timers}
}

func TestController_AutoCloseAfterTimeout(t *testing.T) {
	timers := &fakeTimers{}
	c, w, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	assert.True(t, c.Visible())

	assert.Equal(t, 3*time.Second, timers.fire(t))
	assert.False(t, c.Visible())
	assert.Equal(t, 1, w.hides)
	assert.Empty(t, timers.armed())
}

func TestController_AutoCloseDisabledByDefault(t *testing.T) {
	timers := &fakeTimers{}
	c, _, _, _ := newTestController(Options{Timeout: time.Second, Timers: timers})

	require.NoError(t, c.ToggleOrMove(1, 1))
	c.Touch()
	assert.Empty(t, timers.timers)
}

func TestController_PointerHoldsPopupOpen(t *testing.T) {
	timers := &fakeTimers{}
	c, w, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	w.enter()
	assert.Empty(t, timers.armed(), "countdown stops while the pointer is inside")

	c.Touch()
	assert.Empty(t, timers.armed(), "touch does not re-arm under the pointer")

	w.leave()
	timers.fire(t)
	assert.False(t, c.Visible())
}

func TestController_TouchRestartsCountdown(t *testing.T) {
	timers := &fakeTimers{}
	c, _, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	first := timers.armed()[0]
	c.Touch()

	assert.True(t, first.stopped)
	require.Len(t, timers.armed(), 1)
	assert.NotSame(t, first, timers.armed()[0])
}

func TestController_HideDisarms(t *testing.T) {
	timers := &fakeTimers{}
	c, w, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	require.NoError(t, c.ToggleOrMove(1, 1))
	assert.Empty(t, timers.armed())

	require.NoError(t, c.ToggleOrMove(1, 1))
	w.Hide()
	assert.Empty(t, timers.armed(), "window manager hide disarms too")

	c.Touch()
	assert.Empty(t, timers.armed(), "touch on a hidden popup is ignored")
}

func TestController_ReshowClearsStaleHover(t *testing.T) {
	timers := &fakeTimers{}
	c, w, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	w.enter()
	// Hidden from the tray while the pointer was inside.
	require.NoError(t, c.ToggleOrMove(1, 1))
	require.NoError(t, c.ToggleOrMove(1, 1))

	assert.Len(t, timers.armed(), 1)
}

func TestController_DestroyDisarms(t *testing.T) {
	timers := &fakeTimers{}
	c, _, _, _ := newTestController(autoCloseOptions(timers))

	require.NoError(t, c.ToggleOrMove(1, 1))
	c.Destroy()
	assert.Empty(t, timers.armed())
}

package placement

import (
	"errors"

	"github.com/jezek/xgb/xproto"
)

type fakeWindow struct {
	realized  bool
	xid       uint32
	xidErr    error
	onRealize []func()
	onMap     []func()
}

func (w *fakeWindow) Realized() bool { return w.realized }

func (w *fakeWindow) XID() (uint32, error) {
	if w.xidErr != nil {
		return 0, w.xidErr
	}
	if !w.realized {
		return 0, errors.New("not realized")
	}
	return w.xid, nil
}

func (w *fakeWindow) ConnectRealize(f func()) { w.onRealize = append(w.onRealize, f) }
func (w *fakeWindow) ConnectMap(f func())     { w.onMap = append(w.onMap, f) }

func (w *fakeWindow) realize() {
	w.realized = true
	for _, f := range w.onRealize {
		f()
	}
}

func (w *fakeWindow) mapWindow() {
	for _, f := range w.onMap {
		f()
	}
}

type queueScheduler struct {
	queue []func()
}

func (s *queueScheduler) IdleAdd(f func()) { s.queue = append(s.queue, f) }

func (s *queueScheduler) runAll() {
	for len(s.queue) > 0 {
		f := s.queue[0]
		s.queue = s.queue[1:]
		f()
	}
}

type propChange struct {
	win    xproto.Window
	prop   xproto.Atom
	typ    xproto.Atom
	values []uint32
}

type clientMessage struct {
	win  xproto.Window
	typ  xproto.Atom
	data [5]uint32
}

type configure struct {
	win  xproto.Window
	x, y int
}

type fakeConn struct {
	internCalls  int
	internNames  []string
	props        []propChange
	messages     []clientMessage
	configures   []configure
	configureErr error
	propErr      error
	closed       bool
}

// atoms are numbered from 100 in request order.
func (c *fakeConn) InternAtoms(names []string) ([]xproto.Atom, error) {
	c.internCalls++
	c.internNames = append(c.internNames, names...)
	atoms := make([]xproto.Atom, len(names))
	for i := range names {
		atoms[i] = xproto.Atom(100 + i)
	}
	return atoms, nil
}

func (c *fakeConn) ChangeProperty32(win xproto.Window, prop, typ xproto.Atom, values []uint32) error {
	c.props = append(c.props, propChange{win, prop, typ, values})
	return c.propErr
}

func (c *fakeConn) SendClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) error {
	c.messages = append(c.messages, clientMessage{win, typ, data})
	return nil
}

func (c *fakeConn) ConfigureWindow(win xproto.Window, x, y int) error {
	if c.configureErr != nil {
		return c.configureErr
	}
	c.configures = append(c.configures, configure{win, x, y})
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func dialerFor(conn *fakeConn, dials *int) Dialer {
	return func() (Conn, error) {
		*dials++
		return conn, nil
	}
}

type shellCall struct {
	method string
	arg    any
}

type fakeShell struct {
	calls []shellCall
}

func (s *fakeShell) InitForWindow(w Window) {
	s.calls = append(s.calls, shellCall{"init", nil})
}

func (s *fakeShell) SetNamespace(w Window, namespace string) {
	s.calls = append(s.calls, shellCall{"namespace", namespace})
}

func (s *fakeShell) SetLayer(w Window, layer Layer) {
	s.calls = append(s.calls, shellCall{"layer", layer})
}

func (s *fakeShell) AutoExclusiveZoneEnable(w Window) {
	s.calls = append(s.calls, shellCall{"exclusive-zone", nil})
}

func (s *fakeShell) SetMargin(w Window, edge Edge, margin int) {
	s.calls = append(s.calls, shellCall{"margin", [2]int{int(edge), margin}})
}

func (s *fakeShell) SetAnchor(w Window, edge Edge, anchored bool) {
	s.calls = append(s.calls, shellCall{"anchor", struct {
		edge     Edge
		anchored bool
	}{edge, anchored}})
}

package placement

import (
	"errors"
	"log/slog"

	"github.com/jezek/xgb/xproto"
)

const (
	wmStateAdd       = 1
	sourceIndication = 1
	bypassCompositor = 2
)

var errNoConnection = errors.New("no display connection")

// OpState tracks a deferred move request.
type OpState int

const (
	// OpIdle means no move has been requested yet.
	OpIdle OpState = iota
	// OpPendingRealize means the window was not realized when the move
	// ran and it will be retried once on realize.
	OpPendingRealize
	// OpConfigured means the window was moved.
	OpConfigured
	// OpAbandoned means the move failed and was dropped.
	OpAbandoned
)

func (s OpState) String() string {
	switch s {
	case OpPendingRealize:
		return "pending-realize"
	case OpConfigured:
		return "configured"
	case OpAbandoned:
		return "abandoned"
	default:
		return "idle"
	}
}

type move struct {
	x, y int
}

// X11Placer styles the popup with EWMH hints and moves it with
// ConfigureWindow. Protocol errors are logged and never returned.
type X11Placer struct {
	dial   Dialer
	sched  Scheduler
	logger *slog.Logger

	conn  Conn
	atoms *AtomTable

	attached bool
	styled   bool
	mapped   bool

	pending *move
	state   OpState
}

// NewX11Placer creates an X11 placer. The connection is opened lazily on
// the first realize.
func NewX11Placer(dial Dialer, sched Scheduler, logger *slog.Logger) *X11Placer {
	if logger == nil {
		logger = slog.Default()
	}
	return &X11Placer{
		dial:   dial,
		sched:  sched,
		logger: logger,
	}
}

// Attach hooks the realize and map handlers. Calling it again is a no-op.
func (p *X11Placer) Attach(w Window) {
	if p.attached {
		return
	}
	p.attached = true

	w.ConnectRealize(func() { p.onRealize(w) })
	w.ConnectMap(func() { p.onMap(w) })

	if w.Realized() {
		p.onRealize(w)
	}
}

// Place schedules a move of w to (x, y) on the idle queue.
func (p *X11Placer) Place(w Window, x, y int) {
	m := move{x: x, y: y}
	p.sched.IdleAdd(func() { p.configure(w, m) })
}

// Close drops the display connection.
func (p *X11Placer) Close() error {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	return nil
}

// State returns the state of the most recent move request.
func (p *X11Placer) State() OpState {
	return p.state
}

func (p *X11Placer) onRealize(w Window) {
	if !p.styled {
		p.styled = true
		if err := p.style(w); err != nil {
			p.logger.Warn("failed to style popup window", "error", err)
		}
	}

	if p.pending != nil {
		m := *p.pending
		p.pending = nil
		if err := p.moveNow(w, m); err != nil {
			p.state = OpAbandoned
			p.logger.Warn("popup move dropped after realize", "x", m.x, "y", m.y, "error", err)
			return
		}
		p.state = OpConfigured
	}
}

// style opens the connection, resolves atoms and sets the window hints.
func (p *X11Placer) style(w Window) error {
	xid, err := w.XID()
	if err != nil {
		return protoErr("window id", err)
	}
	if err := p.ensureConn(); err != nil {
		return err
	}
	win := xproto.Window(xid)

	hints := []struct {
		op     string
		prop   xproto.Atom
		typ    xproto.Atom
		values []uint32
	}{
		{"set window type", p.atoms.WindowType, xproto.AtomAtom, []uint32{uint32(p.atoms.WindowTypeUtility)}},
		{"set allowed actions", p.atoms.AllowedActions, xproto.AtomAtom, []uint32{uint32(p.atoms.ActionClose), uint32(p.atoms.ActionAbove)}},
		{"set bypass compositor", p.atoms.BypassCompositor, xproto.AtomCardinal, []uint32{bypassCompositor}},
	}
	for _, h := range hints {
		if err := p.conn.ChangeProperty32(win, h.prop, h.typ, h.values); err != nil {
			p.logger.Warn("failed to set window hint", "error", protoErr(h.op, err))
		}
	}
	return nil
}

func (p *X11Placer) ensureConn() error {
	if p.conn != nil {
		return nil
	}
	conn, err := p.dial()
	if err != nil {
		return protoErr("connect", err)
	}
	atoms, err := resolveAtoms(conn)
	if err != nil {
		conn.Close()
		return protoErr("intern atoms", err)
	}
	p.conn = conn
	p.atoms = atoms
	return nil
}

// onMap asserts the window states once, on the first map only.
func (p *X11Placer) onMap(w Window) {
	if p.mapped || p.conn == nil {
		return
	}
	p.mapped = true

	xid, err := w.XID()
	if err != nil {
		p.logger.Warn("failed to set window state", "error", protoErr("window id", err))
		return
	}
	win := xproto.Window(xid)

	pairs := [][2]xproto.Atom{
		{p.atoms.StateAbove, p.atoms.StateSticky},
		{p.atoms.StateSkipTaskbar, p.atoms.StateSkipPager},
	}
	for _, pair := range pairs {
		data := [5]uint32{wmStateAdd, uint32(pair[0]), uint32(pair[1]), sourceIndication, 0}
		if err := p.conn.SendClientMessage(win, p.atoms.State, data); err != nil {
			p.logger.Warn("failed to set window state", "error", protoErr("send wm state", err))
		}
	}
}

// configure runs on the idle queue. An unrealized window parks the move
// until the realize handler retries it.
func (p *X11Placer) configure(w Window, m move) {
	if !w.Realized() {
		p.pending = &m
		p.state = OpPendingRealize
		p.logger.Debug("popup not realized, deferring move", "x", m.x, "y", m.y)
		return
	}
	if err := p.moveNow(w, m); err != nil {
		p.state = OpAbandoned
		p.logger.Warn("failed to move popup", "x", m.x, "y", m.y, "error", err)
		return
	}
	p.state = OpConfigured
}

func (p *X11Placer) moveNow(w Window, m move) error {
	xid, err := w.XID()
	if err != nil {
		return protoErr("window id", err)
	}
	if p.conn == nil {
		return protoErr("configure window", errNoConnection)
	}
	if err := p.conn.ConfigureWindow(xproto.Window(xid), m.x, m.y); err != nil {
		return protoErr("configure window", err)
	}
	return nil
}

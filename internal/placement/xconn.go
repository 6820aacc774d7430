package placement

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Conn is the subset of the X11 protocol the placer uses.
type Conn interface {
	// InternAtoms resolves names, issuing every request before reading
	// any reply.
	InternAtoms(names []string) ([]xproto.Atom, error)
	// ChangeProperty32 replaces a format-32 property on win.
	ChangeProperty32(win xproto.Window, property, typ xproto.Atom, values []uint32) error
	// SendClientMessage sends a format-32 client message about win to the
	// root window so the window manager sees it.
	SendClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) error
	// ConfigureWindow moves win to (x, y).
	ConfigureWindow(win xproto.Window, x, y int) error
	Close()
}

// Dialer opens a Conn.
type Dialer func() (Conn, error)

type xgbConn struct {
	c    *xgb.Conn
	root xproto.Window
}

// DialX11 connects to the display named by $DISPLAY.
func DialX11() (Conn, error) {
	c, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	setup := xproto.Setup(c)
	if setup == nil || len(setup.Roots) == 0 {
		c.Close()
		return nil, fmt.Errorf("connect: no screens")
	}
	return &xgbConn{c: c, root: setup.DefaultScreen(c).Root}, nil
}

func (x *xgbConn) InternAtoms(names []string) ([]xproto.Atom, error) {
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(x.c, false, uint16(len(name)), name)
	}

	atoms := make([]xproto.Atom, len(names))
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return nil, fmt.Errorf("intern atom %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atoms, nil
}

func (x *xgbConn) ChangeProperty32(win xproto.Window, property, typ xproto.Atom, values []uint32) error {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		xgb.Put32(buf[i*4:], v)
	}
	return xproto.ChangePropertyChecked(x.c, xproto.PropModeReplace, win, property, typ,
		32, uint32(len(values)), buf).Check()
}

func (x *xgbConn) SendClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	return xproto.SendEventChecked(x.c, false, x.root, mask, string(ev.Bytes())).Check()
}

func (x *xgbConn) ConfigureWindow(win xproto.Window, px, py int) error {
	return xproto.ConfigureWindowChecked(x.c, win, xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(px)), uint32(int32(py))}).Check()
}

func (x *xgbConn) Close() {
	x.c.Close()
}

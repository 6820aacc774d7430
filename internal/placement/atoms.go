package placement

import (
	"fmt"

	"github.com/jezek/xgb/xproto"
)

// AtomTable holds the EWMH atoms used to style the popup.
type AtomTable struct {
	WindowType        xproto.Atom
	WindowTypeUtility xproto.Atom
	AllowedActions    xproto.Atom
	ActionClose       xproto.Atom
	ActionAbove       xproto.Atom
	BypassCompositor  xproto.Atom
	State             xproto.Atom
	StateAbove        xproto.Atom
	StateSticky       xproto.Atom
	StateSkipTaskbar  xproto.Atom
	StateSkipPager    xproto.Atom
}

var atomNames = []string{
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_UTILITY",
	"_NET_WM_ALLOWED_ACTIONS",
	"_NET_WM_ACTION_CLOSE",
	"_NET_WM_ACTION_ABOVE",
	"_NET_WM_BYPASS_COMPOSITOR",
	"_NET_WM_STATE",
	"_NET_WM_STATE_ABOVE",
	"_NET_WM_STATE_STICKY",
	"_NET_WM_STATE_SKIP_TASKBAR",
	"_NET_WM_STATE_SKIP_PAGER",
}

// resolveAtoms interns all atoms in one batched round trip.
func resolveAtoms(conn Conn) (*AtomTable, error) {
	atoms, err := conn.InternAtoms(atomNames)
	if err != nil {
		return nil, err
	}
	if len(atoms) != len(atomNames) {
		return nil, fmt.Errorf("interned %d atoms, want %d", len(atoms), len(atomNames))
	}
	return &AtomTable{
		WindowType:        atoms[0],
		WindowTypeUtility: atoms[1],
		AllowedActions:    atoms[2],
		ActionClose:       atoms[3],
		ActionAbove:       atoms[4],
		BypassCompositor:  atoms[5],
		State:             atoms[6],
		StateAbove:        atoms[7],
		StateSticky:       atoms[8],
		StateSkipTaskbar:  atoms[9],
		StateSkipPager:    atoms[10],
	}, nil
}

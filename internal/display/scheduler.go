package display

import (
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// IdleScheduler queues functions on the GLib main loop.
type IdleScheduler struct{}

// IdleAdd runs f once on the main loop when it is idle.
func (IdleScheduler) IdleAdd(f func()) {
	glib.IdleAdd(f)
}

// AfterFunc runs f once on the main loop after d. The returned stop must
// be called on the main loop too.
func (IdleScheduler) AfterFunc(d time.Duration, f func()) func() {
	fired := false
	handle := coreglib.TimeoutAdd(uint(d.Milliseconds()), func() bool {
		fired = true
		f()
		return false
	})
	return func() {
		if !fired {
			fired = true
			coreglib.SourceRemove(handle)
		}
	}
}

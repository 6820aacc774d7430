package display

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volctl/internal/mixer"
)

// StreamList is a row of sliders, one per application stream.
type StreamList struct {
	box        *gtk.Box
	allowExtra bool

	order  []uint32
	scales map[uint32]*VolumeScale

	onVolume func(index, volume uint32)
	onMute   func(index uint32, muted bool)
}

// NewStreamList builds an empty list.
func NewStreamList(allowExtra bool) *StreamList {
	l := &StreamList{
		box:        gtk.NewBox(gtk.OrientationHorizontal, 0),
		allowExtra: allowExtra,
		scales:     make(map[uint32]*VolumeScale),
	}
	l.box.AddCSSClass("volctl-streams")
	return l
}

// Widget returns the root widget.
func (l *StreamList) Widget() *gtk.Box {
	return l.box
}

// OnVolume sets the callback for stream slider moves made by the user.
func (l *StreamList) OnVolume(f func(index, volume uint32)) {
	l.onVolume = f
}

// OnMute sets the callback for stream mute toggles made by the user.
func (l *StreamList) OnMute(f func(index uint32, muted bool)) {
	l.onMute = f
}

// SetStreams shows streams. Existing sliders are updated in place; the
// row is rebuilt only when streams come or go.
func (l *StreamList) SetStreams(streams []mixer.Stream) {
	if !sameStreams(l.order, streams) {
		l.rebuild(streams)
	}
	for _, s := range streams {
		scale := l.scales[s.Index]
		scale.SetTitle(s.Name, s.Icon)
		scale.SetState(s.State())
	}
}

func (l *StreamList) rebuild(streams []mixer.Stream) {
	for _, index := range l.order {
		l.box.Remove(l.scales[index].Widget())
		delete(l.scales, index)
	}
	l.order = l.order[:0]

	for _, s := range streams {
		index := s.Index
		scale := NewVolumeScale(l.allowExtra)
		scale.OnVolume(func(volume uint32) {
			if l.onVolume != nil {
				l.onVolume(index, volume)
			}
		})
		scale.OnMute(func(muted bool) {
			if l.onMute != nil {
				l.onMute(index, muted)
			}
		})
		l.box.Append(scale.Widget())
		l.scales[index] = scale
		l.order = append(l.order, index)
	}
}

// sameStreams reports whether streams are exactly the indexes in order.
func sameStreams(order []uint32, streams []mixer.Stream) bool {
	if len(order) != len(streams) {
		return false
	}
	for i, s := range streams {
		if order[i] != s.Index {
			return false
		}
	}
	return true
}

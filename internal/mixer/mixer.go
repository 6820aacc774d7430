package mixer

import (
	"context"
	"fmt"
)

const (
	// MaxNaturalVolume is the raw volume value of 100%.
	MaxNaturalVolume uint32 = 65536
	// MaxScaleVolume is the raw volume value of 150%.
	MaxScaleVolume uint32 = MaxNaturalVolume * 3 / 2
)

// State is a snapshot of the active sink.
type State struct {
	Volume uint32
	Muted  bool
}

// Percent returns the volume as a rounded percentage of the natural maximum.
func (s State) Percent() int {
	return int((uint64(s.Volume)*100 + uint64(MaxNaturalVolume)/2) / uint64(MaxNaturalVolume))
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s.Muted {
		return fmt.Sprintf("%d%% (muted)", s.Percent())
	}
	return fmt.Sprintf("%d%%", s.Percent())
}

// Stream is an application playing into a sink.
type Stream struct {
	Index  uint32
	Name   string
	Icon   string
	Volume uint32
	Muted  bool
}

// State returns the stream's volume and mute flag.
func (s Stream) State() State {
	return State{Volume: s.Volume, Muted: s.Muted}
}

// Backend is implemented by audio servers.
type Backend interface {
	// State returns the current sink state.
	State(ctx context.Context) (State, error)
	// ChangeVolume raises or lowers the sink volume by delta raw units,
	// clamping the result to [0, limit]. The delta is applied to a fresh
	// read of the sink.
	ChangeVolume(ctx context.Context, delta int, limit uint32) error
	// SetVolume moves the sink to an absolute raw volume.
	SetVolume(ctx context.Context, volume uint32) error
	// SetMuted sets the sink mute flag.
	SetMuted(ctx context.Context, muted bool) error
}

// StreamBackend is implemented by backends that can list and control
// per-application streams.
type StreamBackend interface {
	Streams(ctx context.Context) ([]Stream, error)
	SetStreamVolume(ctx context.Context, index uint32, volume uint32) error
	SetStreamMuted(ctx context.Context, index uint32, muted bool) error
}

// Subscriber is implemented by backends that push change notifications.
// The returned channel receives a value whenever the server reports a
// change; bursts are coalesced.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// Limit returns the upper volume bound for wheel changes.
func Limit(allowExtra bool) uint32 {
	if allowExtra {
		return MaxScaleVolume
	}
	return MaxNaturalVolume
}

// clampVolume applies delta to current and clamps the result to [0, limit].
// Lowering never clamps upwards, so a sink already above limit can still be
// turned down.
func clampVolume(current uint32, delta int, limit uint32) uint32 {
	target := int64(current) + int64(delta)
	if target < 0 {
		return 0
	}
	if delta > 0 && target > int64(limit) {
		if current > limit {
			return current
		}
		return limit
	}
	return uint32(target)
}

// scaleChannels moves the average of volumes to target while keeping the
// balance between channels.
func scaleChannels(volumes []uint32, target uint32) []uint32 {
	out := make([]uint32, len(volumes))
	avg := averageVolume(volumes)
	for i, v := range volumes {
		if avg == 0 {
			out[i] = target
			continue
		}
		scaled := uint64(v) * uint64(target) / uint64(avg)
		out[i] = uint32(min(scaled, uint64(^uint32(0)>>1)))
	}
	return out
}

func averageVolume(volumes []uint32) uint32 {
	if len(volumes) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range volumes {
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(volumes)))
}

package mixer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	// pactl localizes "Mute: yes"
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Pactl controls a PulseAudio or PipeWire-pulse sink through the pactl tool.
// It is the fallback driver for systems where the native protocol socket
// is unreachable, so it is polled and has no per-application streams.
type Pactl struct {
	sink string
	run  Runner
}

// NewPactl creates a pactl backend for the given sink name.
// A nil runner uses ExecRunner.
func NewPactl(sink string, run Runner) *Pactl {
	if run == nil {
		run = ExecRunner
	}
	return &Pactl{sink: sink, run: run}
}

// rawVolumeRe matches the raw per-channel value in "front-left: 65536 / 100% / 0.00 dB".
var rawVolumeRe = regexp.MustCompile(`:\s*(\d+)\s*/\s*\d+%`)

// State implements Backend.
func (p *Pactl) State(ctx context.Context) (State, error) {
	volOut, err := p.run(ctx, "pactl", "get-sink-volume", p.sink)
	if err != nil {
		return State{}, err
	}
	volume, err := parseVolume(volOut)
	if err != nil {
		return State{}, err
	}

	muteOut, err := p.run(ctx, "pactl", "get-sink-mute", p.sink)
	if err != nil {
		return State{}, err
	}
	muted, err := parseMute(muteOut)
	if err != nil {
		return State{}, err
	}

	return State{Volume: volume, Muted: muted}, nil
}

// ChangeVolume implements Backend.
func (p *Pactl) ChangeVolume(ctx context.Context, delta int, limit uint32) error {
	if delta == 0 {
		return nil
	}
	state, err := p.State(ctx)
	if err != nil {
		return err
	}
	target := clampVolume(state.Volume, delta, limit)
	if target == state.Volume {
		return nil
	}
	return p.SetVolume(ctx, target)
}

// SetVolume implements Backend.
func (p *Pactl) SetVolume(ctx context.Context, volume uint32) error {
	_, err := p.run(ctx, "pactl", "set-sink-volume", p.sink, strconv.FormatUint(uint64(volume), 10))
	return err
}

// SetMuted implements Backend.
func (p *Pactl) SetMuted(ctx context.Context, muted bool) error {
	value := "0"
	if muted {
		value = "1"
	}
	_, err := p.run(ctx, "pactl", "set-sink-mute", p.sink, value)
	return err
}

// parseVolume averages the raw channel volumes reported by get-sink-volume.
func parseVolume(out []byte) (uint32, error) {
	// Only the first line carries channel volumes; the second is balance.
	line, _, _ := strings.Cut(string(out), "\n")
	matches := rawVolumeRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("unrecognized pactl volume output: %q", strings.TrimSpace(line))
	}

	volumes := make([]uint32, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid raw volume %q: %w", m[1], err)
		}
		volumes = append(volumes, uint32(v))
	}
	return averageVolume(volumes), nil
}

var errMuteOutput = errors.New("unrecognized pactl mute output")

// parseMute reads "Mute: yes" / "Mute: no".
func parseMute(out []byte) (bool, error) {
	s := strings.TrimSpace(string(out))
	_, value, ok := strings.Cut(s, ":")
	if !ok {
		return false, fmt.Errorf("%w: %q", errMuteOutput, s)
	}
	switch strings.TrimSpace(value) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", errMuteOutput, s)
}

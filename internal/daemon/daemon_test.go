package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/config"
)

type recordingSender struct {
	sent []Notification
	next uint32
	err  error
}

func (s *recordingSender) Send(n Notification) (uint32, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.sent = append(s.sent, n)
	s.next++
	return s.next, nil
}

func TestNotifier_RateLimitsAndReplaces(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier(s, nil)
	clock := time.Unix(0, 0)
	n.now = func() time.Time { return clock }

	n.NotifyConfigError(errors.New("bad"))
	n.NotifyConfigError(errors.New("bad again"))
	require.Len(t, s.sent, 1)
	assert.Zero(t, s.sent[0].ReplacesID)
	assert.Equal(t, LevelWarning, s.sent[0].Level)

	clock = clock.Add(6 * time.Second)
	n.NotifyConfigError(errors.New("still bad"))
	require.Len(t, s.sent, 2)
	assert.Equal(t, uint32(1), s.sent[1].ReplacesID)
	assert.Contains(t, s.sent[1].Body, "still bad")

	n.NotifyMixerError(errors.New("no server"))
	require.Len(t, s.sent, 3, "keys are limited independently")
	assert.Equal(t, LevelError, s.sent[2].Level)
}

func TestNotifier_Disabled(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier(s, nil)
	n.SetEnabled(false)
	n.NotifyThemeError(errors.New("x"))
	assert.Empty(t, s.sent)

	n = NewNotifier(nil, nil)
	n.SetEnabled(true)
	n.NotifyThemeError(errors.New("x"))
}

func TestNotifier_SendFailure(t *testing.T) {
	s := &recordingSender{err: errors.New("no server")}
	n := NewNotifier(s, nil)
	n.NotifyThemeError(errors.New("x"))
	assert.Empty(t, n.ids)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, byte(0), LevelInfo.urgency())
	assert.Equal(t, byte(1), LevelWarning.urgency())
	assert.Equal(t, byte(2), LevelError.urgency())
	assert.Equal(t, "dialog-error", LevelError.icon())
}

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mouse]\nwheel_step = 5\n"), 0o600))

	initial, err := config.Load(path)
	require.NoError(t, err)

	w, err := NewConfigWatcher(path, initial, nil)
	require.NoError(t, err)

	reloaded := make(chan *config.Config, 8)
	failed := make(chan error, 8)
	w.SetReloadCallback(func(cfg *config.Config) { reloaded <- cfg })
	w.SetErrorCallback(func(err error) { failed <- err })

	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("[mouse]\nwheel_step = 10\n"), 0o600))
	select {
	case cfg := <-reloaded:
		assert.Equal(t, 10, cfg.Mouse.WheelStep)
		assert.Same(t, cfg, w.Current())
	case <-time.After(5 * time.Second):
		t.Fatal("reload not observed")
	}

	require.NoError(t, os.WriteFile(path, []byte("[mouse]\nwheel_step = 500\n"), 0o600))
	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "wheel_step")
		assert.Equal(t, 10, w.Current().Mouse.WheelStep)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid config not reported")
	}
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	w, err := NewConfigWatcher(filepath.Join(t.TempDir(), "volctl.toml"), config.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

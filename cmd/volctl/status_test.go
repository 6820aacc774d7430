package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
)

func TestWaybarStatus(t *testing.T) {
	tests := []struct {
		name  string
		state mixer.State
		text  string
		class string
	}{
		{"low", mixer.State{Volume: 6554}, "10%", "low"},
		{"medium", mixer.State{Volume: 32768}, "50%", "medium"},
		{"high", mixer.State{Volume: 65536}, "100%", "high"},
		{"muted", mixer.State{Volume: 65536, Muted: true}, "100%", "muted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := waybarStatus(tt.state)
			assert.Equal(t, tt.text, s.Text)
			assert.Equal(t, tt.class, s.Class)
			assert.Equal(t, tt.class, s.Alt)
		})
	}
}

func TestOutputStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputStatus(&buf, waybarStatus(mixer.State{})))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "0%", got["text"])
	assert.Equal(t, float64(0), got["percentage"], "zero percentage is still emitted")
}

func TestWriteConfig(t *testing.T) {
	c := config.DefaultConfig()

	var tomlOut bytes.Buffer
	require.NoError(t, writeConfig(&tomlOut, c, "toml"))
	assert.Contains(t, tomlOut.String(), "wheel_step = 5")
	assert.Regexp(t, `poll_interval = .250ms.`, tomlOut.String())

	var yamlOut bytes.Buffer
	require.NoError(t, writeConfig(&yamlOut, c, "yaml"))
	assert.Contains(t, yamlOut.String(), "wheel_step: 5")
	assert.Contains(t, yamlOut.String(), "poll_interval: 250ms")

	assert.Error(t, writeConfig(&bytes.Buffer{}, c, "ini"))
}

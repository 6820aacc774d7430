package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/volctl/internal/mixer"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		name  string
		state mixer.State
		want  string
	}{
		{"zero", mixer.State{Volume: 0}, "low"},
		{"just below a third", mixer.State{Volume: 21845}, "low"},
		{"a third", mixer.State{Volume: 21846}, "medium"},
		{"just below two thirds", mixer.State{Volume: 43690}, "medium"},
		{"two thirds", mixer.State{Volume: 43691}, "high"},
		{"natural maximum", mixer.State{Volume: mixer.MaxNaturalVolume}, "high"},
		{"above natural maximum", mixer.State{Volume: mixer.MaxScaleVolume}, "high"},
		{"muted wins", mixer.State{Volume: 50000, Muted: true}, "muted"},
		{"muted at zero", mixer.State{Volume: 0, Muted: true}, "muted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bucket(tt.state))
			assert.Equal(t, "audio-volume-"+tt.want, IconName(tt.state))
		})
	}
}

func TestTooltipText(t *testing.T) {
	assert.Equal(t, "50%", TooltipText(mixer.State{Volume: 32768}))
	assert.Equal(t, "100%", TooltipText(mixer.State{Volume: mixer.MaxNaturalVolume}))
	assert.Equal(t, "0% <b>(muted)</b>", TooltipText(mixer.State{Muted: true}))
}

func TestNewToolTip(t *testing.T) {
	tip := NewToolTip(mixer.State{Volume: 32768, Muted: true})
	assert.Equal(t, "Volume", tip.Title)
	assert.Equal(t, "50% <b>(muted)</b>", tip.Description)
	assert.Empty(t, tip.IconName)
	assert.NotNil(t, tip.IconPixmap)
}

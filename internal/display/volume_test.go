package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volctl/internal/mixer"
)

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0", FormatPercent(0))
	assert.Equal(t, "50", FormatPercent(32768))
	assert.Equal(t, "100", FormatPercent(mixer.MaxNaturalVolume))
	assert.Equal(t, "150", FormatPercent(mixer.MaxScaleVolume))
}

func TestDisplayError(t *testing.T) {
	err := &DisplayError{Message: "no display available"}
	assert.Equal(t, "no display available", err.Error())
	assert.Nil(t, err.Unwrap())

	wrapped := &DisplayError{Message: "xid", Cause: errNotRealized}
	assert.Equal(t, "xid: window not realized", wrapped.Error())
	assert.ErrorIs(t, wrapped, errNotRealized)
}

func TestXIDErrorCarriesCause(t *testing.T) {
	for _, cause := range []error{errNotRealized, errNotX11} {
		err := xidError(cause)

		var de *DisplayError
		require.ErrorAs(t, err, &de)
		assert.Same(t, cause, de.Cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to resolve X11 window id: "+cause.Error(), err.Error())
	}
	assert.NotErrorIs(t, xidError(errNotX11), errNotRealized)
}

func TestScaleTooltip(t *testing.T) {
	assert.Equal(t, "50%", ScaleTooltip("", mixer.State{Volume: 32768}))
	assert.Equal(t, "<b>Firefox</b>\n50% <b>(muted)</b>", ScaleTooltip("Firefox", mixer.State{Volume: 32768, Muted: true}))
	assert.Equal(t, "<b>Tom &amp; Jerry &lt;live&gt;</b>\n0%", ScaleTooltip("Tom & Jerry <live>", mixer.State{}))
}

package display

import (
	"fmt"
	"html"
	"math"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/tray"
)

// VolumeScale is a vertical volume slider with a mute toggle below it.
type VolumeScale struct {
	box   *gtk.Box
	scale *gtk.Scale
	mute  *gtk.ToggleButton
	icon  *gtk.Image

	// Set for application streams.
	title   string
	appIcon *gtk.Image

	state    mixer.State
	updating bool

	onVolume func(volume uint32)
	onMute   func(muted bool)
}

// NewVolumeScale builds the widgets. With allowExtra the slider reaches
// 150% and marks 100%.
func NewVolumeScale(allowExtra bool) *VolumeScale {
	v := &VolumeScale{}

	limit := float64(mixer.Limit(allowExtra))
	v.scale = gtk.NewScaleWithRange(gtk.OrientationVertical, 0, limit, float64(mixer.MaxNaturalVolume)/100)
	v.scale.SetInverted(true)
	v.scale.SetDrawValue(true)
	v.scale.SetVExpand(true)
	v.scale.AddCSSClass("volctl-scale")
	v.scale.SetFormatValueFunc(func(_ *gtk.Scale, value float64) string {
		return FormatPercent(value)
	})
	if allowExtra {
		v.scale.AddMark(float64(mixer.MaxNaturalVolume), gtk.PosLeft, "")
	}
	v.scale.ConnectValueChanged(func() {
		if v.updating || v.onVolume == nil {
			return
		}
		v.onVolume(uint32(math.Round(v.scale.Value())))
	})

	v.icon = gtk.NewImageFromIconName(tray.IconName(v.state))
	v.mute = gtk.NewToggleButton()
	v.mute.SetChild(v.icon)
	v.mute.AddCSSClass("volctl-mute")
	v.mute.ConnectToggled(func() {
		if v.updating || v.onMute == nil {
			return
		}
		v.onMute(v.mute.Active())
	})

	v.box = gtk.NewBox(gtk.OrientationVertical, 6)
	v.box.AddCSSClass("volctl-volume")
	v.box.SetMarginTop(8)
	v.box.SetMarginBottom(8)
	v.box.SetMarginStart(8)
	v.box.SetMarginEnd(8)
	v.box.Append(v.scale)
	v.box.Append(v.mute)

	return v
}

// Widget returns the root widget.
func (v *VolumeScale) Widget() gtk.Widgetter {
	return v.box
}

// OnVolume sets the callback for slider moves made by the user.
func (v *VolumeScale) OnVolume(f func(volume uint32)) {
	v.onVolume = f
}

// OnMute sets the callback for mute toggles made by the user.
func (v *VolumeScale) OnMute(f func(muted bool)) {
	v.onMute = f
}

// Current returns the last state shown.
func (v *VolumeScale) Current() mixer.State {
	return v.state
}

// SetState shows state without firing the user callbacks.
func (v *VolumeScale) SetState(state mixer.State) {
	v.updating = true
	defer func() { v.updating = false }()

	if state.Volume != v.state.Volume {
		v.scale.SetValue(float64(state.Volume))
	}
	if state.Muted != v.state.Muted {
		v.scale.SetSensitive(!state.Muted)
		v.mute.SetActive(state.Muted)
		if state.Muted {
			v.scale.AddCSSClass("muted")
		} else {
			v.scale.RemoveCSSClass("muted")
		}
	}
	v.icon.SetFromIconName(tray.IconName(state))
	v.state = state
	v.updateTooltip()
}

// SetTitle labels the scale with an application name and icon.
func (v *VolumeScale) SetTitle(name, iconName string) {
	if v.appIcon == nil {
		v.appIcon = gtk.NewImage()
		v.appIcon.AddCSSClass("volctl-app-icon")
		v.box.Prepend(v.appIcon)
	}
	if iconName == "" {
		iconName = "application-x-executable"
	}
	v.appIcon.SetFromIconName(iconName)
	v.appIcon.SetTooltipText(name)
	v.title = name
	v.updateTooltip()
}

func (v *VolumeScale) updateTooltip() {
	tip := ScaleTooltip(v.title, v.state)
	v.scale.SetTooltipMarkup(tip)
	v.mute.SetTooltipMarkup(tip)
}

// ScaleTooltip returns the tooltip markup for a scale, prefixed with the
// escaped title when there is one.
func ScaleTooltip(title string, state mixer.State) string {
	tip := tray.TooltipText(state)
	if title == "" {
		return tip
	}
	return "<b>" + html.EscapeString(title) + "</b>\n" + tip
}

// FormatPercent renders a raw volume as a whole percentage.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.0f", value/float64(mixer.MaxNaturalVolume)*100)
}

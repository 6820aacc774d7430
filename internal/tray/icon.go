package tray

import (
	"fmt"

	"github.com/jmylchreest/volctl/internal/mixer"
)

const (
	// ItemID is the StatusNotifierItem Id property.
	ItemID = "volctl"
	// ItemTitle is the StatusNotifierItem Title property.
	ItemTitle = "volctl"
	// TooltipTitle is the tooltip heading.
	TooltipTitle = "Volume"
)

var buckets = [...]string{"low", "medium", "high"}

// Bucket returns "muted", or "low", "medium" or "high" by thirds of the
// natural volume range.
func Bucket(s mixer.State) string {
	if s.Muted {
		return "muted"
	}
	idx := uint64(s.Volume) * 3 / uint64(mixer.MaxNaturalVolume)
	if idx > 2 {
		idx = 2
	}
	return buckets[idx]
}

// IconName returns the freedesktop icon name for the state.
func IconName(s mixer.State) string {
	return "audio-volume-" + Bucket(s)
}

// TooltipText returns the tooltip body, with a bold marker when muted.
func TooltipText(s mixer.State) string {
	text := fmt.Sprintf("%d%%", s.Percent())
	if s.Muted {
		return text + " <b>(muted)</b>"
	}
	return text
}

// Pixmap is an ARGB32 icon image as used by StatusNotifierItem.
type Pixmap struct {
	Width  int32
	Height int32
	Data   []byte
}

// ToolTip is the StatusNotifierItem ToolTip property, signature (sa(iiay)ss).
type ToolTip struct {
	IconName    string
	IconPixmap  []Pixmap
	Title       string
	Description string
}

// NewToolTip builds the tooltip for a state.
func NewToolTip(s mixer.State) ToolTip {
	return ToolTip{
		IconPixmap:  []Pixmap{},
		Title:       TooltipTitle,
		Description: TooltipText(s),
	}
}

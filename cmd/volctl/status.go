package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/tray"
)

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current volume",
	Long: `Print the current sink volume.

The default text format is meant for terminals. The waybar format emits
a custom module JSON object:

  "custom/volume": {
    "exec": "volctl status --format waybar",
    "interval": 1,
    "return-type": "json",
    "on-click": "volctl mute",
    "on-scroll-up": "volctl up",
    "on-scroll-down": "volctl down"
  }

The alt and class fields carry the icon bucket (low, medium, high, muted).`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "text",
		"Output format (text, waybar)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMixer()
	defer closeMixer(m)
	state, err := m.State(ctx)

	switch statusOpts.format {
	case "waybar":
		if err != nil {
			return outputStatus(cmd.OutOrStdout(), WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
		}
		return outputStatus(cmd.OutOrStdout(), waybarStatus(state))
	case "text":
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(state))
		return nil
	default:
		return fmt.Errorf("unknown format %q, must be text or waybar", statusOpts.format)
	}
}

// waybarStatus builds the Waybar module payload for a sink state.
func waybarStatus(s mixer.State) WaybarStatus {
	bucket := tray.Bucket(s)
	return WaybarStatus{
		Text:       fmt.Sprintf("%d%%", s.Percent()),
		Alt:        bucket,
		Tooltip:    "Volume " + s.String(),
		Class:      bucket,
		Percentage: s.Percent(),
	}
}

// renderStatus renders a one-line terminal summary.
func renderStatus(s mixer.State) string {
	percent := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d%%", s.Percent()))
	if s.Muted {
		return percent + " " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("muted")
	}
	return percent + " " + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(tray.IconName(s))
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

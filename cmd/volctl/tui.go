package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/tui"
	"github.com/jmylchreest/volctl/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Terminal volume control",
	Long: `Launch a terminal volume control for sessions without a tray.

Key bindings:
  k/j, ↑/↓    Raise/lower by mouse.wheel_step
  pgup/pgdn   Raise/lower by four steps
  m, space    Toggle mute
  x           Open the external mixer
  r           Refresh
  ?           Show help
  q           Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newMixer()
		defer closeMixer(m)
		return tui.Run(m, tui.Options{
			Options:      ui.OptionsFromConfig(cfg),
			PollInterval: cfg.Mixer.PollInterval.Duration() * 4,
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/backend"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the display backend volctl would use",
	Long: `Print the display backend volctl would use for popup placement.

The configured display.backend wins when it is not "auto". Otherwise the
session environment (WAYLAND_DISPLAY, DISPLAY, XDG_SESSION_TYPE) decides.
The tray itself also asks GDK, which this command does not initialize.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := backend.NewDetector(cfg.Display.Backend, logger, backend.EnvProbe(os.Getenv)).Detect()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), kind.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/ui"
)

var volumeOpts struct {
	steps int
	quiet bool
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Raise the volume by mouse.wheel_step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stepVolume(cmd, -volumeOpts.steps)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Lower the volume by mouse.wheel_step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stepVolume(cmd, volumeOpts.steps)
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Toggle mute",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		m := newMixer()
		defer closeMixer(m)
		state, err := m.State(ctx)
		if err != nil {
			return err
		}
		if err := m.SetMuted(ctx, !state.Muted); err != nil {
			return err
		}
		return printState(ctx, cmd, m)
	},
}

func init() {
	for _, c := range []*cobra.Command{upCmd, downCmd, muteCmd} {
		c.Flags().BoolVarP(&volumeOpts.quiet, "quiet", "q", false, "Do not print the new volume")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{upCmd, downCmd} {
		c.Flags().IntVarP(&volumeOpts.steps, "steps", "n", 1, "Number of wheel steps")
	}
}

// stepVolume applies delta wheel notches the same way the tray does.
func stepVolume(cmd *cobra.Command, delta int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMixer()
	defer closeMixer(m)
	change := ui.ScrollChange(delta, cfg.Mouse.WheelStep, cfg.Mouse.Rounding)
	if err := m.ChangeVolume(ctx, change, mixer.Limit(cfg.Volume.AllowExtra)); err != nil {
		return err
	}
	return printState(ctx, cmd, m)
}

func printState(ctx context.Context, cmd *cobra.Command, m mixer.Backend) error {
	if volumeOpts.quiet {
		return nil
	}
	state, err := m.State(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderStatus(state))
	return nil
}

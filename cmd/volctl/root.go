package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/backend"
	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/mixer"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "volctl",
	Short: "Volume control for the system tray",
	Long: `volctl puts a volume icon in the system tray.

Scroll on the icon to change the volume, click it to open a slider and
middle-click it to toggle mute. The popup is placed next to the pointer
on X11 and anchored to the top right corner on Wayland.

Running volctl without a subcommand starts the tray.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: runTray,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, backend.ErrUnresolvableBackend) {
			fmt.Fprintln(os.Stderr, "volctl: neither X11 nor Wayland is available")
		} else {
			fmt.Fprintln(os.Stderr, "volctl:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/volctl/volctl.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// resolvedConfigPath returns --config or the default location.
func resolvedConfigPath() (string, error) {
	if globalOpts.configPath != "" {
		return globalOpts.configPath, nil
	}
	return config.ConfigPath()
}

// newMixer returns the audio backend for the configured driver and sink.
func newMixer() mixer.Backend {
	if cfg.Mixer.Driver == config.DriverPactl {
		return mixer.NewPactl(cfg.Mixer.Sink, nil)
	}
	return mixer.NewPulse(cfg.Mixer.Server, cfg.Mixer.Sink, logger)
}

// closeMixer releases the connection held by backends that keep one.
func closeMixer(m mixer.Backend) {
	c, ok := m.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Debug("failed to close mixer", "error", err)
	}
}

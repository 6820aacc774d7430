// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultWheelStep    = 5
	DefaultSink         = "@DEFAULT_SINK@"
	DefaultMixerCommand = "pavucontrol"
	DefaultPollInterval = 250 * time.Millisecond
	DefaultThemeName    = "default"
	DefaultPopupTimeout = 3 * time.Second
	DefaultOSDTimeout   = 2 * time.Second
	DefaultOSDScale     = 100
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "250ms", "1s", or a quoted integer of milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '250ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Rounding selects how fractional volume deltas are rounded.
type Rounding string

const (
	// RoundHalfAway rounds to nearest, ties away from zero.
	RoundHalfAway Rounding = "half-away"
	// RoundHalfEven rounds to nearest, ties to even.
	RoundHalfEven Rounding = "half-even"
)

// Round applies the rounding mode to v.
func (r Rounding) Round(v float64) float64 {
	if r == RoundHalfEven {
		return math.RoundToEven(v)
	}
	return math.Round(v)
}

// Backend is the configured display backend override.
type Backend string

const (
	BackendAuto    Backend = "auto"
	BackendX11     Backend = "x11"
	BackendWayland Backend = "wayland"
)

// Driver selects how volctl talks to the audio server.
type Driver string

const (
	// DriverPulse uses the PulseAudio native protocol with change events.
	DriverPulse Driver = "pulse"
	// DriverPactl polls the pactl tool.
	DriverPactl Driver = "pactl"
)

// Position is a screen anchor for the on-screen display.
type Position string

const (
	PositionCenter       Position = "center"
	PositionBottomRight  Position = "bottom-right"
	PositionMiddleRight  Position = "middle-right"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionTopLeft      Position = "top-left"
	PositionMiddleLeft   Position = "middle-left"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
)

// Positions lists every valid Position.
var Positions = []Position{
	PositionCenter, PositionBottomRight, PositionMiddleRight, PositionTopRight, PositionTopCenter,
	PositionTopLeft, PositionMiddleLeft, PositionBottomLeft, PositionBottomCenter,
}

// Config is the configuration for volctl.
// Loaded from ~/.config/volctl/volctl.toml
type Config struct {
	Mouse    MouseConfig    `toml:"mouse" yaml:"mouse"`
	Volume   VolumeConfig   `toml:"volume" yaml:"volume"`
	Mixer    MixerConfig    `toml:"mixer" yaml:"mixer"`
	Tray     TrayConfig     `toml:"tray" yaml:"tray"`
	Popup    PopupConfig    `toml:"popup" yaml:"popup"`
	Display  DisplayConfig  `toml:"display" yaml:"display"`
	Feedback FeedbackConfig `toml:"feedback" yaml:"feedback"`
	OSD      OSDConfig      `toml:"osd" yaml:"osd"`
	Theme    ThemeConfig    `toml:"theme" yaml:"theme"`
}

// MouseConfig contains mouse wheel settings.
type MouseConfig struct {
	WheelStep int      `toml:"wheel_step" yaml:"wheel_step"` // Percent of natural volume per wheel notch
	Rounding  Rounding `toml:"rounding" yaml:"rounding"`     // "half-away" or "half-even"
}

// VolumeConfig contains volume limit settings.
type VolumeConfig struct {
	AllowExtra bool `toml:"allow_extra" yaml:"allow_extra"` // Allow raising volume up to 150%
}

// MixerConfig contains audio backend settings.
type MixerConfig struct {
	Driver       Driver   `toml:"driver" yaml:"driver"` // "pulse" or "pactl"
	Server       string   `toml:"server" yaml:"server"` // Pulse server address, empty for the default
	Sink         string   `toml:"sink" yaml:"sink"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"` // pactl only
	Command      string   `toml:"command" yaml:"command"`             // External mixer program
}

// TrayConfig contains tray icon settings.
type TrayConfig struct {
	FullMenu     bool `toml:"full_menu" yaml:"full_menu"`         // Show Mute/Mixer/Preferences/About besides Quit
	NotifyErrors bool `toml:"notify_errors" yaml:"notify_errors"` // Desktop notification on config or theme errors
}

// PopupConfig contains popup window settings.
type PopupConfig struct {
	Width       int      `toml:"width" yaml:"width"`
	Height      int      `toml:"height" yaml:"height"`
	ClampToWork bool     `toml:"clamp" yaml:"clamp"`               // Clamp X11 placement to the monitor bounds
	ShowStreams bool     `toml:"show_streams" yaml:"show_streams"` // Per-application sliders (pulse driver)
	AutoClose   bool     `toml:"auto_close" yaml:"auto_close"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"` // Auto-close delay once the pointer leaves
}

// OSDConfig contains on-screen volume display settings.
type OSDConfig struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
	Scale    int      `toml:"scale" yaml:"scale"` // Percent of the base size
	Position Position `toml:"position" yaml:"position"`
}

// DisplayConfig contains display server settings.
type DisplayConfig struct {
	Backend Backend `toml:"backend" yaml:"backend"` // "auto", "x11" or "wayland"
}

// FeedbackConfig contains settings for the wheel feedback sound.
type FeedbackConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Sound   string `toml:"sound" yaml:"sound"`
	Volume  int    `toml:"volume" yaml:"volume"` // 0-100
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name string `toml:"name" yaml:"name"` // Theme name without .css extension
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Mouse: MouseConfig{
			WheelStep: DefaultWheelStep,
			Rounding:  RoundHalfAway,
		},
		Volume: VolumeConfig{
			AllowExtra: false,
		},
		Mixer: MixerConfig{
			Driver:       DriverPulse,
			Sink:         DefaultSink,
			PollInterval: Duration(DefaultPollInterval),
			Command:      DefaultMixerCommand,
		},
		Tray: TrayConfig{
			FullMenu:     false,
			NotifyErrors: true,
		},
		Popup: PopupConfig{
			Width:       64,
			Height:      240,
			ClampToWork: false,
			ShowStreams: true,
			AutoClose:   false,
			Timeout:     Duration(DefaultPopupTimeout),
		},
		Display: DisplayConfig{
			Backend: BackendAuto,
		},
		Feedback: FeedbackConfig{
			Enabled: false,
			Volume:  80,
		},
		OSD: OSDConfig{
			Enabled:  true,
			Timeout:  Duration(DefaultOSDTimeout),
			Scale:    DefaultOSDScale,
			Position: PositionBottomRight,
		},
		Theme: ThemeConfig{
			Name: DefaultThemeName,
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "volctl", "volctl.toml"), nil
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mouse.WheelStep < 1 || c.Mouse.WheelStep > 50 {
		return fmt.Errorf("wheel_step must be between 1 and 50, got %d", c.Mouse.WheelStep)
	}

	switch c.Mouse.Rounding {
	case RoundHalfAway, RoundHalfEven:
	default:
		return fmt.Errorf("invalid rounding %q, must be one of: %s, %s", c.Mouse.Rounding, RoundHalfAway, RoundHalfEven)
	}

	switch c.Display.Backend {
	case BackendAuto, BackendX11, BackendWayland:
	default:
		return fmt.Errorf("invalid display backend %q, must be one of: %s, %s, %s",
			c.Display.Backend, BackendAuto, BackendX11, BackendWayland)
	}

	switch c.Mixer.Driver {
	case DriverPulse, DriverPactl:
	default:
		return fmt.Errorf("invalid mixer driver %q, must be one of: %s, %s", c.Mixer.Driver, DriverPulse, DriverPactl)
	}

	if strings.TrimSpace(c.Mixer.Sink) == "" {
		return errors.New("mixer sink must not be empty")
	}
	if c.Mixer.PollInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 10ms, got %s", c.Mixer.PollInterval.Duration())
	}

	if c.Popup.Width < 16 || c.Popup.Height < 16 {
		return fmt.Errorf("popup size must be at least 16x16, got %dx%d", c.Popup.Width, c.Popup.Height)
	}

	if c.Popup.AutoClose && c.Popup.Timeout.Duration() < 100*time.Millisecond {
		return fmt.Errorf("popup timeout must be at least 100ms, got %s", c.Popup.Timeout.Duration())
	}

	if c.OSD.Timeout.Duration() < 100*time.Millisecond {
		return fmt.Errorf("osd timeout must be at least 100ms, got %s", c.OSD.Timeout.Duration())
	}
	if c.OSD.Scale < 25 || c.OSD.Scale > 400 {
		return fmt.Errorf("osd scale must be between 25 and 400, got %d", c.OSD.Scale)
	}
	if !slices.Contains(Positions, c.OSD.Position) {
		return fmt.Errorf("invalid osd position %q", c.OSD.Position)
	}

	if c.Feedback.Volume < 0 || c.Feedback.Volume > 100 {
		return fmt.Errorf("feedback volume must be between 0 and 100, got %d", c.Feedback.Volume)
	}

	return nil
}

// MixerCommandArgs splits the external mixer command into program and arguments.
func (c *Config) MixerCommandArgs() []string {
	cmd := strings.Fields(c.Mixer.Command)
	if len(cmd) == 0 {
		return []string{DefaultMixerCommand}
	}
	return cmd
}

// FeedbackSound returns the feedback sound path with ~ expanded.
func (c *Config) FeedbackSound() string {
	return expandPath(c.Feedback.Sound)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

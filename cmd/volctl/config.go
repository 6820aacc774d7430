package main

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/theme"
)

var configOpts struct {
	format string
	force  bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), cfg, configOpts.format)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if !configOpts.force && fileExists(path) {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		return nil
	},
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available popup themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := theme.ThemesDir()
		if err != nil {
			dir = ""
		}
		infos, err := theme.List(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, info := range infos {
			fmt.Fprintln(out, themeLine(info))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configThemesCmd)

	configShowCmd.Flags().StringVarP(&configOpts.format, "format", "f", "toml",
		"Output format (toml, yaml)")
	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing file")
}

// writeConfig encodes c to w in the given format.
func writeConfig(w io.Writer, c *config.Config, format string) error {
	switch format {
	case "toml", "":
		enc := toml.NewEncoder(w)
		return enc.Encode(c)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(c)
	default:
		return fmt.Errorf("unknown format %q, must be toml or yaml", format)
	}
}

// themeLine renders one entry of the theme listing.
func themeLine(info theme.Info) string {
	switch {
	case info.Bundled:
		return info.Name + " (bundled)"
	case info.Shadows:
		return info.Name + " " + info.Path + " (overrides bundled)"
	default:
		return info.Name + " " + info.Path
	}
}

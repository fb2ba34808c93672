package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"brightctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Shows or changes persistent settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the config file path and the settings it controls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printConfig(cmd.OutOrStdout(), current.cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <prefer|debug> <value>",
	Short: "Changes a setting and saves the config file",
	Example: `  brightctl config set prefer ddc
  brightctl config set debug true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setConfigKey(current.cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := current.cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func setConfigKey(cfg *config.Instance, key, value string) error {
	switch key {
	case "prefer":
		return cfg.SetPrefer(value)
	case "debug":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("debug: %w", err)
		}
		cfg.SetDebugLogging(on)
		return nil
	default:
		return fmt.Errorf("unknown setting %q (prefer, debug)", key)
	}
}

func printConfig(w io.Writer, cfg *config.Instance) {
	v := cfg.Values()
	fmt.Fprintf(w, "file:    %s\n", cfg.Path())
	fmt.Fprintf(w, "prefer:  %s\n", v.Control.Prefer)
	fmt.Fprintf(w, "debug:   %t\n", cfg.DebugLogging())
	fmt.Fprintf(w, "backend: %s\n", v.DDC.Backend)
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	cfgPath    string
	methodFlag string
	current    *app
)

var rootCmd = &cobra.Command{
	Use:   "brightctl [command]",
	Short: "Monitor discovery and brightness control",
	Long: `brightctl finds the monitors attached to this machine and reads or sets
their brightness over DDC/CI, falling back to xrandr software brightness
when a monitor does not answer on its I2C bus.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/brightctl/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&methodFlag, "method", "m", "", "preferred control method: auto, ddc or xrandr")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <display|all>",
	Short: "Prints the brightness of a display",
	Long: `Prints the brightness (0-100) of a display. A display is selected by bus
number, key (i2c-3), connector (card1-DP-3), xrandr output (DP-4) or model name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		targets, err := selectDisplays(displays, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, d := range targets {
			v, m, err := current.ctrl.Brightness(cmd.Context(), d, current.prefer)
			if err != nil {
				return err
			}
			if len(targets) == 1 && !verbose {
				fmt.Fprintln(out, v)
				continue
			}
			fmt.Fprintf(out, "%s\t%d\t(%s)\n", d.Key(), v, m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"brightctl/internal/ddc"
	"brightctl/internal/display"
)

var detectViaDdcutil bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detects connected monitors",
	Long: `Scans the I2C buses, kernel connectors and xrandr outputs and prints every
monitor found, grouped by the graphics adapter driving it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if detectViaDdcutil {
			found, err := ddc.DetectDdcutil(cmd.Context(), current.exec)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(out, "ddcutil found no displays")
			}
			for _, d := range found {
				fmt.Fprintln(out, d.String())
			}
			return nil
		}

		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		printTree(out, display.GroupByAdapter(displays), verbose)
		return nil
	},
}

func printTree(w io.Writer, cards []display.VideoCard, detail bool) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No displays found.")
		return
	}
	for _, card := range cards {
		fmt.Fprintln(w, card.Name)
		for _, d := range card.Displays {
			fmt.Fprintf(w, "  %s [%s]\n", d.Name(), d.Key())
			if d.Port != "" {
				fmt.Fprintf(w, "    port:    %s (%s)\n", d.Port, d.Connector.Raw)
			}
			if d.Bus >= 0 {
				fmt.Fprintf(w, "    bus:     /dev/i2c-%d ddc=%s\n", d.Bus, yesNo(d.SupportsDDC))
			}
			if d.Output != "" {
				fmt.Fprintf(w, "    output:  %s\n", d.OutputMatch)
			}
			fmt.Fprintf(w, "    control: %s\n", d.Preferred)
			if detail && d.Identity != nil {
				id := d.Identity
				fmt.Fprintf(w, "    edid:    %s serial=%s version=%s", id.Manufacturer, id.Serial, id.Version)
				if res := id.Resolution(); res != "" {
					fmt.Fprintf(w, " native=%s", res)
				}
				fmt.Fprintln(w)
				if d.BusSource != "" {
					fmt.Fprintf(w, "    mapping: %s\n", d.BusSource)
				}
			}
		}
	}
}

func init() {
	detectCmd.Flags().BoolVar(&detectViaDdcutil, "ddcutil", false, "ask `ddcutil detect --terse` instead of scanning")
	rootCmd.AddCommand(detectCmd)
}

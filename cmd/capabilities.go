package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"brightctl/internal/ddc"
)

var capsRaw bool

var capabilitiesCmd = &cobra.Command{
	Use:     "capabilities <display>",
	Aliases: []string{"caps"},
	Short:   "Reads the DDC/CI capabilities of a display",
	Long: `Sends a Capabilities Request to the display and prints the MCCS version,
model and the VCP features it advertises, followed by the current contrast,
colour preset, input source, volume, power mode and VCP version where the
monitor answers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := current.requireDDC()
		if err != nil {
			return err
		}
		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		d, err := selectDisplay(displays, args[0])
		if err != nil {
			return err
		}
		if d.Bus < 0 {
			return fmt.Errorf("%s has no I2C bus", d.Key())
		}

		caps, err := client.Capabilities(cmd.Context(), d.Bus)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if capsRaw {
			fmt.Fprintln(out, caps.Raw)
			return nil
		}
		fmt.Fprintf(out, "%s on bus %d\n", d.Name(), d.Bus)
		fmt.Fprintf(out, "  model:    %s\n", orDash(caps.Model))
		fmt.Fprintf(out, "  type:     %s\n", orDash(caps.Type))
		fmt.Fprintf(out, "  mccs:     %s\n", orDash(caps.MCCSVersion))
		fmt.Fprintln(out, "  features:")
		for _, code := range caps.VCP {
			fmt.Fprintf(out, "    0x%02X  %s\n", code, ddc.FeatureName(code))
		}

		fmt.Fprintln(out, "  current values:")
		for _, r := range client.ReadFeatures(cmd.Context(), d.Bus, caps, ddc.DiagnosticFeatures...) {
			if r.Err != nil {
				log.Debug().Err(r.Err).Int("bus", d.Bus).Msgf("reading vcp 0x%02X", r.Code)
				continue
			}
			fmt.Fprintf(out, "    %-22s %s\n", ddc.FeatureName(r.Code)+":", r)
		}
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().BoolVar(&capsRaw, "raw", false, "print the unparsed capabilities string")
	rootCmd.AddCommand(capabilitiesCmd)
}

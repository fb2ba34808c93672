package cmd

import (
	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the brightness of every display",
	Long:  "Discovers displays and reads their current brightness in parallel.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		samples := current.ctrl.ReadAll(cmd.Context(), displays, current.prefer)

		rows := make([]row, 0, len(displays))
		for i := range displays {
			rows = append(rows, withSample(toRow(&displays[i]), samples[i]))
		}
		return writeRows(cmd.OutOrStdout(), statusFormat, rows)
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "output", "o", formatTable, "output format: table, json, yaml or csv")
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists discovered displays",
	Long:  "Lists every discovered display as a table, JSON, YAML or CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([]row, 0, len(displays))
		for i := range displays {
			rows = append(rows, toRow(&displays[i]))
		}
		return writeRows(cmd.OutOrStdout(), listFormat, rows)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "output", "o", formatTable, "output format: table, json, yaml or csv")
	rootCmd.AddCommand(listCmd)
}

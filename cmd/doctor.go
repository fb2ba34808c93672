package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"brightctl/internal/ddc"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Checks what brightness control this host supports",
	Long: `Reports the operating system, I2C device nodes, the i2c-dev module, helper
tools and the DDC backend that "auto" resolves to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, current.detector.GetOSInfo())
		fmt.Fprintf(out, "Config: %s\n", current.cfg.Path())
		if current.detector.GetOSType() != ddc.OSLinux {
			fmt.Fprintln(out, "Hardware control: unavailable, only xrandr brightness can work here")
			return nil
		}
		printSupport(out, current.detector.CheckSupport())
		if current.ddc != nil {
			fmt.Fprintf(out, "Using backend: %s\n", current.backend)
		}
		return nil
	},
}

func printSupport(w io.Writer, s ddc.Support) {
	fmt.Fprintf(w, "I2C device nodes: %d\n", len(s.I2CNodes))
	for _, n := range s.I2CNodes {
		fmt.Fprintf(w, "  %s\n", n)
	}
	fmt.Fprintf(w, "i2c-dev module loaded: %s\n", yesNo(s.I2CDevLoaded))

	tools := make([]string, 0, len(s.Tools))
	for t := range s.Tools {
		tools = append(tools, t)
	}
	slices.Sort(tools)
	for _, t := range tools {
		fmt.Fprintf(w, "%s: %s\n", t, yesNo(s.Tools[t]))
	}

	backend := string(s.Backend)
	if backend == "" {
		backend = "none"
	}
	fmt.Fprintf(w, "Auto backend: %s (%s)\n", backend, s.BackendReason)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

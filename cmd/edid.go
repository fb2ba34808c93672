package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"brightctl/internal/edid"
)

var (
	edidFile string
	edidDump bool
)

var edidCmd = &cobra.Command{
	Use:   "edid [display]",
	Short: "Decodes the EDID of a display or file",
	Long: `Decodes the EDID of a discovered display, or of a file given with --file.
The file may be the raw binary from /sys/class/drm/*/edid or a hex dump as
printed by xrandr --verbose.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		switch {
		case edidFile != "":
			data, err := afero.ReadFile(current.fs, edidFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", edidFile, err)
			}
			raw = decodeEDIDFile(data)
		case len(args) == 1:
			displays, err := current.discover(cmd.Context())
			if err != nil {
				return err
			}
			d, err := selectDisplay(displays, args[0])
			if err != nil {
				return err
			}
			if len(d.EDID) == 0 {
				return fmt.Errorf("no EDID recovered for %s", d.Key())
			}
			raw = d.EDID
		default:
			return errors.New("give a display or --file")
		}

		id, err := edid.Decode(raw)
		if err != nil {
			return err
		}
		printIdentity(cmd.OutOrStdout(), id, raw)
		if edidDump {
			fmt.Fprint(cmd.OutOrStdout(), edid.Dump(raw))
		}
		return nil
	},
}

// decodeEDIDFile accepts binary EDID or a hex dump.
func decodeEDIDFile(data []byte) []byte {
	if b, err := edid.ParseHex(string(data)); err == nil && len(b) >= edid.BlockSize {
		return b
	}
	return data
}

func printIdentity(w io.Writer, id *edid.Identity, raw []byte) {
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-13s %s\n", name+":", value)
		}
	}
	field("Manufacturer", id.Manufacturer)
	if v := id.VendorName(); v != id.Manufacturer {
		field("Vendor", v)
	}
	field("Model", id.Model)
	field("Serial", id.Serial)
	if id.Year > 0 {
		if id.Week > 0 {
			field("Manufactured", fmt.Sprintf("%d week %d", id.Year, id.Week))
		} else {
			field("Manufactured", fmt.Sprint(id.Year))
		}
	}
	field("EDID version", id.Version)
	field("Size", id.PhysicalSize())
	field("Aspect", id.AspectRatio)
	field("Native", id.Resolution())
	input := "analog"
	if id.Digital {
		input = "digital"
	}
	field("Input", input)
	field("Extensions", fmt.Sprint(id.Extensions))
	field("Fingerprint", edid.Fingerprint(raw))
}

func init() {
	edidCmd.Flags().StringVarP(&edidFile, "file", "f", "", "decode this file instead of a display")
	edidCmd.Flags().BoolVar(&edidDump, "dump", false, "also print the raw bytes")
	rootCmd.AddCommand(edidCmd)
}

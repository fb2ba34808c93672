package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"brightctl/internal/display"
)

// row is the flat, serialisable form of a display.
type row struct {
	Key        string `json:"key" yaml:"key" csv:"key"`
	Name       string `json:"name" yaml:"name" csv:"name"`
	Bus        int    `json:"bus" yaml:"bus" csv:"bus"`
	Connector  string `json:"connector,omitempty" yaml:"connector,omitempty" csv:"connector"`
	Port       string `json:"port,omitempty" yaml:"port,omitempty" csv:"port"`
	Adapter    string `json:"adapter" yaml:"adapter" csv:"adapter"`
	DDC        bool   `json:"ddc" yaml:"ddc" csv:"ddc"`
	Output     string `json:"output,omitempty" yaml:"output,omitempty" csv:"output"`
	Match      string `json:"output_match" yaml:"output_match" csv:"output_match"`
	Method     string `json:"method" yaml:"method" csv:"method"`
	Methods    string `json:"methods" yaml:"methods" csv:"methods"`
	Serial     string `json:"serial,omitempty" yaml:"serial,omitempty" csv:"serial"`
	Brightness *int   `json:"brightness,omitempty" yaml:"brightness,omitempty" csv:"brightness"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" csv:"error"`
}

func toRow(d *display.Info) row {
	r := row{
		Key:       d.Key(),
		Name:      d.Name(),
		Bus:       d.Bus,
		Connector: d.Connector.Raw,
		Port:      d.Port,
		Adapter:   d.Adapter,
		DDC:       d.SupportsDDC,
		Output:    d.Output,
		Match:     d.OutputMatch.Confidence.String(),
		Method:    string(d.Preferred),
	}
	methods := make([]string, 0, 2)
	for _, m := range d.Methods() {
		methods = append(methods, string(m))
	}
	r.Methods = strings.Join(methods, ",")
	if d.Identity != nil {
		r.Serial = d.Identity.Serial
	}
	return r
}

func withSample(r row, s display.Sample) row {
	if s.Err != nil {
		r.Error = s.Err.Error()
		return r
	}
	v := s.Value
	r.Brightness = &v
	r.Method = string(s.Method)
	return r
}

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

func writeRows(w io.Writer, format string, rows []row) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows) //nolint:wrapcheck // writer errors are final
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close() //nolint:wrapcheck // flush only
	case formatCSV:
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("encode csv: %w", err)
		}
		return nil
	case formatTable, "":
		return writeTable(w, rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, rows []row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tPORT\tDDC\tOUTPUT\tMETHOD\tBRIGHTNESS")
	for _, r := range rows {
		output := "-"
		if r.Output != "" {
			output = fmt.Sprintf("%s (%s)", r.Output, r.Match)
		}
		bright := "-"
		switch {
		case r.Error != "":
			bright = "error: " + r.Error
		case r.Brightness != nil:
			bright = strconv.Itoa(*r.Brightness)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Key, r.Name, orDash(r.Port), yesNo(r.DDC), output, r.Method, bright)
	}
	return tw.Flush() //nolint:wrapcheck // writer errors are final
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

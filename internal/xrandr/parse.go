// Package xrandr reads outputs and sets software brightness through the
// X server's RandR extension, by way of the xrandr helper.
package xrandr

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Output is one connected output from `xrandr --verbose`.
type Output struct {
	Name          string
	Primary       bool
	Geometry      string  // e.g. "2560x1440+0+0", empty when disabled
	EDID          []byte  // nil when the dump carried none or it was malformed
	Brightness    float64 // software brightness factor
	HasBrightness bool
}

const edidLineLen = 32

// ParseVerbose extracts connected outputs from an `xrandr --verbose` dump.
// A non-indented line whose second field is "connected" starts a record;
// any other non-indented line ends it. Indented lines of exactly 32 hex
// digits are concatenated into the record's EDID.
func ParseVerbose(text string) []Output {
	var outputs []Output
	var current *Output
	var edidHex strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		if edidHex.Len() > 0 {
			if b, err := hex.DecodeString(edidHex.String()); err == nil {
				current.EDID = b
			}
		}
		outputs = append(outputs, *current)
		current = nil
		edidHex.Reset()
	}

	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if line[0] != ' ' && line[0] != '\t' {
			flush()
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] == "connected" {
				current = &Output{Name: fields[0]}
				rest := fields[2:]
				if len(rest) > 0 && rest[0] == "primary" {
					current.Primary = true
					rest = rest[1:]
				}
				if len(rest) > 0 && strings.Contains(rest[0], "+") {
					current.Geometry = rest[0]
				}
			}
			continue
		}
		if current == nil {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(trimmed, "Brightness:"); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				current.Brightness = f
				current.HasBrightness = true
			}
			continue
		}
		if isEDIDLine(trimmed) {
			edidHex.WriteString(trimmed)
		}
	}
	flush()

	return outputs
}

func isEDIDLine(s string) bool {
	if len(s) != edidLineLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

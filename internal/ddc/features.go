package ddc

import (
	"context"
	"fmt"
)

// DiagnosticFeatures are the features shown next to the capabilities of a
// monitor.
var DiagnosticFeatures = []byte{
	VCPContrast, VCPColorPreset, VCPInputSource, VCPAudioVolume, VCPPowerMode, VCPVersion,
}

// Reading is one feature value read for diagnostics.
type Reading struct {
	Code    byte
	Feature Feature
	Err     error
}

func (r Reading) String() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return FormatValue(r.Code, r.Feature)
}

// ReadFeatures reads codes one after another. With caps set, codes the
// monitor does not advertise are skipped; VCP version is always read since
// monitors rarely list it. Failures are kept in the Reading. It stops early
// when ctx is done.
func (c *Client) ReadFeatures(ctx context.Context, bus int, caps *Capabilities, codes ...byte) []Reading {
	out := make([]Reading, 0, len(codes))
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}
		if caps != nil && code != VCPVersion && !caps.Supports(code) {
			continue
		}
		f, err := c.GetFeature(ctx, bus, code)
		out = append(out, Reading{Code: code, Feature: f, Err: err})
	}
	return out
}

var powerModes = map[uint16]string{
	0x01: "on",
	0x02: "standby",
	0x03: "suspend",
	0x04: "off",
	0x05: "off (power button)",
}

var colorPresets = map[uint16]string{
	0x01: "sRGB",
	0x02: "native",
	0x04: "4000 K",
	0x05: "5000 K",
	0x06: "6500 K",
	0x08: "7500 K",
	0x0A: "9300 K",
	0x0B: "user 1",
	0x0C: "user 2",
	0x0D: "user 3",
}

// FormatValue renders a feature value: names for enumerated features,
// major.minor for the VCP version and current/max otherwise.
func FormatValue(code byte, f Feature) string {
	switch code {
	case VCPInputSource:
		return InputSourceName(byte(f.Current))
	case VCPPowerMode:
		if s, ok := powerModes[f.Current]; ok {
			return s
		}
	case VCPColorPreset:
		if s, ok := colorPresets[f.Current]; ok {
			return s
		}
	case VCPVersion:
		return fmt.Sprintf("%d.%d", f.Current>>8, f.Current&0xFF)
	default:
		return fmt.Sprintf("%d/%d", f.Current, f.Max)
	}
	return fmt.Sprintf("0x%02X", f.Current)
}

package ddc

import (
	"context"
	"fmt"
)

// VCP feature codes touched by brightctl.
const (
	VCPBrightness  byte = 0x10
	VCPContrast    byte = 0x12
	VCPColorPreset byte = 0x14
	VCPInputSource byte = 0x60
	VCPAudioVolume byte = 0x62
	VCPPowerMode   byte = 0xD6
	VCPVersion     byte = 0xDF
)

// BackendKind names a Backend implementation.
type BackendKind string

const (
	BackendAuto    BackendKind = "auto"
	BackendI2C     BackendKind = "i2c"
	BackendDdcutil BackendKind = "ddcutil"
)

// Backend is one way of reaching a monitor's DDC/CI channel. A Backend is
// bound to a single bus for its lifetime.
type Backend interface {
	GetFeature(ctx context.Context, code byte) (Feature, error)
	SetFeature(ctx context.Context, code byte, value uint16) error
	Capabilities(ctx context.Context) (string, error)
	Close() error
	String() string
}

// EDIDReader is implemented by backends that can read the EDID from the
// same bus.
type EDIDReader interface {
	ReadEDID(ctx context.Context) ([]byte, error)
}

// Opener binds a Backend to a bus number.
type Opener func(bus int) (Backend, error)

// DetectedDisplay is one display reported by `ddcutil detect`.
type DetectedDisplay struct {
	Number int    // ddcutil display number
	Bus    int    // I2C bus, -1 when not reported
	Mfg    string // PNP manufacturer code
	Model  string
	Serial string
}

func (d DetectedDisplay) String() string {
	name := d.Mfg
	if d.Model != "" {
		if name != "" {
			name += " "
		}
		name += d.Model
	}
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("display %d (%s) on bus %d", d.Number, name, d.Bus)
}

var featureNames = map[byte]string{
	VCPBrightness:  "Brightness",
	VCPContrast:    "Contrast",
	VCPColorPreset: "Select color preset",
	VCPInputSource: "Input Source",
	VCPAudioVolume: "Audio speaker volume",
	VCPPowerMode:   "Power mode",
	VCPVersion:     "VCP Version",
}

// FeatureName returns the MCCS name of a VCP code for diagnostics.
func FeatureName(code byte) string {
	if name, ok := featureNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Feature 0x%02X", code)
}

// InputSourceName maps a VCP 0x60 value to the port it selects.
func InputSourceName(code byte) string {
	switch code {
	case 0x01:
		return "VGA"
	case 0x03:
		return "DVI-1"
	case 0x04:
		return "DVI-2"
	case 0x0F:
		return "DisplayPort-1"
	case 0x10:
		return "DisplayPort-2"
	case 0x11:
		return "HDMI-1"
	case 0x12:
		return "HDMI-2"
	case 0x13:
		return "HDMI-3"
	case 0x1B:
		return "USB-C"
	default:
		return fmt.Sprintf("Input-0x%02X", code)
	}
}

// Package drm reads display connectors and graphics adapters from the
// kernel's DRM sysfs tree (/sys/class/drm).
package drm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownConnector is returned for names that do not have the
// card<N>-<type>-<n> shape.
var ErrUnknownConnector = errors.New("drm: unknown connector name")

// PortType is the physical connector family.
type PortType string

const (
	PortHDMI        PortType = "HDMI"
	PortDisplayPort PortType = "DisplayPort"
	PortDVI         PortType = "DVI"
	PortVGA         PortType = "VGA"
	PortEDP         PortType = "eDP"
	PortLVDS        PortType = "LVDS"
	PortOther       PortType = "other"
)

// ConnectorName is a parsed sysfs connector name such as "card1-DP-3".
type ConnectorName struct {
	Raw    string
	Card   int    // adapter index, -1 if the first part is not cardN
	Token  string // raw port type token, e.g. "DP"
	Type   PortType
	Number string // last dash-separated part
}

// ParseConnectorName splits name into adapter index, port type and port
// number. Names with fewer than three dash-separated parts are rejected.
func ParseConnectorName(name string) (ConnectorName, error) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return ConnectorName{}, fmt.Errorf("%w: %q", ErrUnknownConnector, name)
	}

	c := ConnectorName{
		Raw:    name,
		Card:   -1,
		Token:  parts[1],
		Type:   portType(parts[1]),
		Number: parts[len(parts)-1],
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(parts[0], "card")); err == nil && strings.HasPrefix(parts[0], "card") {
		c.Card = n
	}
	return c, nil
}

func portType(token string) PortType {
	switch {
	case token == "HDMI":
		return PortHDMI
	case token == "DP":
		return PortDisplayPort
	case strings.HasPrefix(token, "DVI"):
		return PortDVI
	case token == "VGA":
		return PortVGA
	case token == "eDP":
		return PortEDP
	case token == "LVDS":
		return PortLVDS
	default:
		return PortOther
	}
}

// Label is the human readable port name, e.g. "DisplayPort 3".
func (c ConnectorName) Label() string {
	switch c.Type {
	case PortHDMI:
		return "HDMI Port " + c.Number
	case PortDisplayPort:
		return "DisplayPort " + c.Number
	case PortDVI:
		return "DVI Port " + c.Number
	case PortVGA:
		return "VGA Port " + c.Number
	case PortEDP:
		return "eDP Port " + c.Number
	case PortLVDS:
		return "LVDS Port " + c.Number
	default:
		return c.Token + " Port " + c.Number
	}
}

// Output is the name the connector has on the display server,
// e.g. "card1-HDMI-A-1" becomes "HDMI-A-1".
func (c ConnectorName) Output() string {
	_, rest, _ := strings.Cut(c.Raw, "-")
	return rest
}

// Internal reports whether the connector drives a built-in panel.
func (c ConnectorName) Internal() bool {
	return c.Type == PortEDP || c.Type == PortLVDS
}

func (c ConnectorName) String() string {
	return c.Raw
}

// Connector is one connector directory under /sys/class/drm.
type Connector struct {
	Name    ConnectorName
	Status  string // "connected", "disconnected" or "unknown"
	Enabled bool
	EDID    []byte // nil when absent or shorter than one block
	Bus     int    // I2C bus from the ddc link, -1 if none
}

// Connected reports whether a monitor is attached.
func (c *Connector) Connected() bool {
	return c.Status == "connected"
}

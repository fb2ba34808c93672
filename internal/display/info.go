// Package display merges DDC/CI probing, EDID identity, kernel connectors
// and display-server outputs into one record per monitor, and controls
// brightness through whichever channel is available.
package display

import (
	"fmt"
	"slices"
	"strings"

	"brightctl/internal/correlate"
	"brightctl/internal/drm"
	"brightctl/internal/edid"
)

// Method is a brightness control channel.
type Method string

const (
	MethodNone   Method = "none"
	MethodDDC    Method = "ddc"
	MethodXrandr Method = "xrandr"
)

// ParseMethod accepts the user-facing method names. An empty string or
// "auto" means no preference and yields MethodNone.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "none":
		return MethodNone, nil
	case "ddc", "hardware", "i2c":
		return MethodDDC, nil
	case "xrandr", "software", "gamma":
		return MethodXrandr, nil
	default:
		return MethodNone, fmt.Errorf("unknown control method %q", s)
	}
}

// Info is one discovered monitor. It is rebuilt on every discovery pass.
type Info struct {
	Bus         int // I2C bus, -1 for displays found only through a connector
	Identity    *edid.Identity
	EDID        []byte
	Connector   drm.ConnectorName
	BusSource   correlate.BusSource
	Port        string // e.g. "DisplayPort 3"
	Adapter     string // e.g. "NVIDIA RTX 3060"
	SupportsDDC bool
	Output      string // display-server output for the software fallback
	OutputMatch correlate.Match
	Preferred   Method
}

// HasConnector reports whether the display was tied to a kernel connector.
func (d *Info) HasConnector() bool {
	return d.Connector.Raw != ""
}

// Available reports whether m can be used on this display.
func (d *Info) Available(m Method) bool {
	switch m {
	case MethodDDC:
		return d.SupportsDDC && d.Bus >= 0
	case MethodXrandr:
		return d.Output != ""
	default:
		return false
	}
}

// Key identifies the display within one discovery pass and across passes
// while the hardware layout is unchanged.
func (d *Info) Key() string {
	switch {
	case d.Bus >= 0:
		return fmt.Sprintf("i2c-%d", d.Bus)
	case d.HasConnector():
		return d.Connector.Raw
	default:
		return "output-" + d.Output
	}
}

// Name is a human-readable title, e.g. "Acer VG270U".
func (d *Info) Name() string {
	if d.Identity != nil {
		vendor := d.Identity.VendorName()
		switch {
		case vendor != "" && d.Identity.Model != "":
			return vendor + " " + d.Identity.Model
		case d.Identity.Model != "":
			return d.Identity.Model
		case vendor != "":
			return vendor + " display"
		}
	}
	switch {
	case d.Port != "":
		return "Display on " + d.Port
	case d.Bus >= 0:
		return fmt.Sprintf("Display on bus %d", d.Bus)
	default:
		return "Display " + d.Output
	}
}

// Methods lists the usable methods, DDC first.
func (d *Info) Methods() []Method {
	var out []Method
	for _, m := range []Method{MethodDDC, MethodXrandr} {
		if d.Available(m) {
			out = append(out, m)
		}
	}
	return out
}

// VideoCard groups displays by the adapter driving them.
type VideoCard struct {
	Name     string
	Displays []*Info
}

// GroupByAdapter buckets displays by adapter name. Buckets are sorted by
// name; displays keep their discovery order.
func GroupByAdapter(displays []Info) []VideoCard {
	index := map[string]int{}
	var cards []VideoCard
	for i := range displays {
		d := &displays[i]
		name := d.Adapter
		if name == "" {
			name = drm.UnknownAdapter
		}
		n, ok := index[name]
		if !ok {
			n = len(cards)
			index[name] = n
			cards = append(cards, VideoCard{Name: name})
		}
		cards[n].Displays = append(cards[n].Displays, d)
	}
	slices.SortFunc(cards, func(a, b VideoCard) int {
		return strings.Compare(a.Name, b.Name)
	})
	return cards
}

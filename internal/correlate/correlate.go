// Package correlate maps kernel connectors to display-server outputs and
// I2C buses. EDID byte equality is authoritative; name heuristics are a
// lower-confidence fallback and are always reported as such.
package correlate

import (
	"errors"
	"fmt"

	"brightctl/internal/drm"
	"brightctl/internal/edid"
	"brightctl/internal/xrandr"
)

var (
	// ErrAmbiguous means more than one output carries the connector's EDID.
	ErrAmbiguous = errors.New("correlate: ambiguous edid match")

	// ErrUnavailable means no EDID-confirmed match exists.
	ErrUnavailable = errors.New("correlate: no edid match")
)

// Confidence grades how an output name was obtained.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceHeuristic
	ConfidenceAmbiguous
	ConfidenceEDID
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceEDID:
		return "edid"
	case ConfidenceAmbiguous:
		return "ambiguous"
	case ConfidenceHeuristic:
		return "heuristic"
	default:
		return "none"
	}
}

// Match is the result of correlating one connector.
type Match struct {
	Output     string
	Confidence Confidence
	Candidates []string // outputs sharing the EDID when ambiguous
	Err        error    // ErrAmbiguous or ErrUnavailable when not EDID-confirmed
}

// Confirmed reports whether the output was matched by EDID.
func (m Match) Confirmed() bool {
	return m.Confidence == ConfidenceEDID
}

func (m Match) String() string {
	switch m.Confidence {
	case ConfidenceNone:
		return "no output"
	case ConfidenceAmbiguous:
		return fmt.Sprintf("%s (ambiguous: %v)", m.Output, m.Candidates)
	default:
		return fmt.Sprintf("%s (%s)", m.Output, m.Confidence)
	}
}

// Resolve finds the output for a connector. connectorEDID may be nil.
func Resolve(name drm.ConnectorName, connectorEDID []byte, outputs []xrandr.Output) Match {
	if len(connectorEDID) >= edid.BlockSize {
		var hits []string
		for _, o := range outputs {
			if edid.Equal(connectorEDID, o.EDID) {
				hits = append(hits, o.Name)
			}
		}
		switch len(hits) {
		case 0:
		case 1:
			return Match{Output: hits[0], Confidence: ConfidenceEDID}
		default:
			return Match{
				Output:     hits[0],
				Confidence: ConfidenceAmbiguous,
				Candidates: hits,
				Err:        fmt.Errorf("%w: %s matches %v", ErrAmbiguous, name, hits),
			}
		}
	}

	if guess := Heuristic(name); guess != "" {
		return Match{
			Output:     guess,
			Confidence: ConfidenceHeuristic,
			Err:        fmt.Errorf("%w: %s guessed as %s", ErrUnavailable, name, guess),
		}
	}
	return Match{Confidence: ConfidenceNone, Err: fmt.Errorf("%w: %s", ErrUnavailable, name)}
}

// Heuristic guesses an output name from the connector type: HDMI maps to
// "HDMI-0", DisplayPort and eDP to "DP-<port number>". Other types yield "".
func Heuristic(name drm.ConnectorName) string {
	switch name.Type {
	case drm.PortHDMI:
		return "HDMI-0"
	case drm.PortDisplayPort, drm.PortEDP:
		return "DP-" + name.Number
	default:
		return ""
	}
}

// BusSource says how a bus was tied to a connector.
type BusSource string

const (
	BusFromLink   BusSource = "sysfs-link"
	BusFromEDID   BusSource = "edid"
	BusFromStatic BusSource = "static"

	// BusFromElimination pairs the only unmapped DDC bus with the only
	// unclaimed external connector.
	BusFromElimination BusSource = "elimination"
)

// BusConnector finds the connector driven by an I2C bus: the connector's
// ddc link first, then EDID equality, then the static bus table. ok is
// false when nothing matches.
func BusConnector(bus int, busEDID []byte, connectors []drm.Connector, static map[int]string) (drm.Connector, BusSource, bool) {
	for _, c := range connectors {
		if c.Bus == bus {
			return c, BusFromLink, true
		}
	}
	if len(busEDID) >= edid.BlockSize {
		for _, c := range connectors {
			if c.Connected() && edid.Equal(busEDID, c.EDID) {
				return c, BusFromEDID, true
			}
		}
	}
	if name, ok := static[bus]; ok {
		for _, c := range connectors {
			if c.Name.Raw == name {
				return c, BusFromStatic, true
			}
		}
	}
	return drm.Connector{}, "", false
}

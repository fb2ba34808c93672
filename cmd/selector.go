package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"

	"brightctl/internal/display"
)

var (
	errNoDisplay       = errors.New("no display matches")
	errAmbiguousSelect = errors.New("selector matches several displays")
)

// minSimilarity is the Jaro-Winkler score a fuzzy name match must reach.
const minSimilarity = 0.85

// selectDisplays resolves "all" or a single selector.
func selectDisplays(displays []display.Info, sel string) ([]*display.Info, error) {
	if strings.EqualFold(sel, "all") {
		out := make([]*display.Info, 0, len(displays))
		for i := range displays {
			out = append(out, &displays[i])
		}
		if len(out) == 0 {
			return nil, errNoDisplay
		}
		return out, nil
	}
	d, err := selectDisplay(displays, sel)
	if err != nil {
		return nil, err
	}
	return []*display.Info{d}, nil
}

// selectDisplay finds one display by bus number, key, connector, output
// name, model substring, then fuzzy model name.
func selectDisplay(displays []display.Info, sel string) (*display.Info, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, fmt.Errorf("%w: empty selector", errNoDisplay)
	}

	if bus, err := strconv.Atoi(sel); err == nil {
		for i := range displays {
			if displays[i].Bus == bus {
				return &displays[i], nil
			}
		}
		return nil, fmt.Errorf("%w: bus %d (have %s)", errNoDisplay, bus, keys(displays))
	}

	for i := range displays {
		d := &displays[i]
		if strings.EqualFold(d.Key(), sel) ||
			strings.EqualFold(d.Output, sel) ||
			(d.HasConnector() && (strings.EqualFold(d.Connector.Raw, sel) ||
				strings.EqualFold(d.Connector.Output(), sel))) {
			return d, nil
		}
	}

	query := strings.ToLower(sel)
	var hits []int
	for i := range displays {
		if strings.Contains(strings.ToLower(displays[i].Name()), query) {
			hits = append(hits, i)
		}
	}
	switch len(hits) {
	case 1:
		return &displays[hits[0]], nil
	case 0:
	default:
		return nil, fmt.Errorf("%w: %q", errAmbiguousSelect, sel)
	}

	best, bestScore := -1, float32(0)
	for i := range displays {
		score := edlib.JaroWinklerSimilarity(query, strings.ToLower(displays[i].Name()))
		log.Debug().Str("query", query).Str("candidate", displays[i].Name()).
			Float32("similarity", score).Msg("fuzzy display match")
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= minSimilarity {
		return &displays[best], nil
	}
	return nil, fmt.Errorf("%w: %q (have %s)", errNoDisplay, sel, keys(displays))
}

func keys(displays []display.Info) string {
	ks := make([]string, 0, len(displays))
	for i := range displays {
		ks = append(ks, displays[i].Key())
	}
	slices.Sort(ks)
	if len(ks) == 0 {
		return "none"
	}
	return strings.Join(ks, ", ")
}

package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"brightctl/internal/xrandr"
)

// ErrNoControl is returned for displays with neither DDC nor an output.
var ErrNoControl = errors.New("display: no brightness control available")

// DefaultConcurrency bounds parallel reads across displays.
const DefaultConcurrency = 4

// Sample is one brightness reading.
type Sample struct {
	Key    string
	Value  int // 0..100
	Method Method
	Err    error
}

// Controller reads and writes brightness through DDC or the display
// server. Either channel may be nil.
type Controller struct {
	ddc         DDC
	outputs     Outputs
	concurrency int
}

// NewController creates a Controller. concurrency <= 0 uses
// DefaultConcurrency.
func NewController(ddc DDC, outputs Outputs, concurrency int) *Controller {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Controller{ddc: ddc, outputs: outputs, concurrency: concurrency}
}

func (c *Controller) usable(d *Info, m Method) bool {
	switch m {
	case MethodDDC:
		return c.ddc != nil && d.Available(MethodDDC)
	case MethodXrandr:
		return c.outputs != nil && d.Available(MethodXrandr)
	default:
		return false
	}
}

// Resolve picks the method for one operation: pref when usable on d,
// otherwise DDC, otherwise the display server.
func (c *Controller) Resolve(d *Info, pref Method) (Method, error) {
	if pref != MethodNone && c.usable(d, pref) {
		return pref, nil
	}
	for _, m := range []Method{MethodDDC, MethodXrandr} {
		if c.usable(d, m) {
			return m, nil
		}
	}
	return MethodNone, fmt.Errorf("%w: %s", ErrNoControl, d.Key())
}

// Brightness reads the brightness of d as 0..100.
func (c *Controller) Brightness(ctx context.Context, d *Info, pref Method) (int, Method, error) {
	m, err := c.Resolve(d, pref)
	if err != nil {
		return 0, m, err
	}

	switch m {
	case MethodDDC:
		current, _, err := c.ddc.Brightness(ctx, d.Bus)
		if err != nil {
			return 0, m, fmt.Errorf("%s: %w", d.Key(), err)
		}
		return current, m, nil
	default:
		factor, err := c.outputs.Brightness(ctx, d.Output)
		if err != nil {
			return 0, m, fmt.Errorf("%s: %w", d.Key(), err)
		}
		return xrandr.FactorToPercent(factor), m, nil
	}
}

// SetBrightness writes value, clamped to 0..100, and returns the method
// used.
func (c *Controller) SetBrightness(ctx context.Context, d *Info, value int, pref Method) (Method, error) {
	m, err := c.Resolve(d, pref)
	if err != nil {
		return m, err
	}
	value = min(max(value, 0), 100)

	switch m {
	case MethodDDC:
		err = c.ddc.SetBrightness(ctx, d.Bus, value)
	default:
		err = c.outputs.SetBrightness(ctx, d.Output, xrandr.PercentToFactor(value))
	}
	if err != nil {
		return m, fmt.Errorf("%s: %w", d.Key(), err)
	}
	log.Debug().Str("display", d.Key()).Str("method", string(m)).Int("value", value).Msg("brightness set")
	return m, nil
}

// ReadAll reads every display with bounded concurrency. Samples are in
// the order of displays; a failed read is reported in its Sample.
func (c *Controller) ReadAll(ctx context.Context, displays []Info, pref Method) []Sample {
	samples := make([]Sample, len(displays))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := range displays {
		d := &displays[i]
		g.Go(func() error {
			v, m, err := c.Brightness(ctx, d, pref)
			samples[i] = Sample{Key: d.Key(), Value: v, Method: m, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return samples
}

package xrandr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"brightctl/internal/command"
)

// Timeout bounds one xrandr invocation.
const Timeout = 5 * time.Second

// ErrNoOutput is returned when the named output is not connected.
var ErrNoOutput = errors.New("xrandr: output not connected")

// Client runs xrandr. Concurrent Outputs calls share one invocation.
type Client struct {
	exec  command.Executor
	group singleflight.Group
}

// NewClient returns a Client that runs xrandr through exec.
func NewClient(exec command.Executor) *Client {
	return &Client{exec: exec}
}

// Outputs returns every connected output with its EDID and brightness.
func (c *Client) Outputs(ctx context.Context) ([]Output, error) {
	v, err, shared := c.group.Do("verbose", func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, Timeout)
		defer cancel()

		out, err := c.exec.Output(ctx, "xrandr", "--verbose")
		if err != nil {
			return nil, fmt.Errorf("xrandr --verbose: %w", err)
		}
		return ParseVerbose(string(out)), nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the flight
	}
	if shared {
		log.Debug().Msg("shared xrandr --verbose result")
	}
	outputs, _ := v.([]Output)
	return outputs, nil
}

// Output returns the named connected output.
func (c *Client) Output(ctx context.Context, name string) (Output, error) {
	outputs, err := c.Outputs(ctx)
	if err != nil {
		return Output{}, err
	}
	for _, o := range outputs {
		if o.Name == name {
			return o, nil
		}
	}
	return Output{}, fmt.Errorf("%w: %s", ErrNoOutput, name)
}

// Brightness returns the software brightness factor of an output.
func (c *Client) Brightness(ctx context.Context, name string) (float64, error) {
	o, err := c.Output(ctx, name)
	if err != nil {
		return 0, err
	}
	if !o.HasBrightness {
		return 1.0, nil
	}
	return o.Brightness, nil
}

// SetBrightness sets the software brightness factor, clamped to 0..1.
func (c *Client) SetBrightness(ctx context.Context, name string, factor float64) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	factor = math.Min(math.Max(factor, 0), 1)
	err := c.exec.Run(ctx, "xrandr", "--output", name, "--brightness", strconv.FormatFloat(factor, 'f', 2, 64))
	if err != nil {
		return fmt.Errorf("xrandr --output %s --brightness: %w", name, err)
	}
	return nil
}

// PercentToFactor maps 0..100 onto xrandr's 0.0..1.0 scale.
func PercentToFactor(percent int) float64 {
	return float64(min(max(percent, 0), 100)) / 100
}

// FactorToPercent maps an xrandr factor back to 0..100. The round trip is
// lossy below one percent.
func FactorToPercent(factor float64) int {
	p := int(math.Round(factor * 100))
	return min(max(p, 0), 100)
}

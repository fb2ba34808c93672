package ddc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"brightctl/internal/syncutil"
)

// Client is the VCP feature layer. Every call opens the bus through the
// configured Opener, performs one transaction and closes it again. At most
// one transaction is in flight per bus.
type Client struct {
	open    Opener
	clock   clockwork.Clock
	locks   map[int]*syncutil.Mutex
	retries int
	backoff time.Duration
	mu      syncutil.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithRetries retries transport and protocol failures up to n extra times,
// waiting backoff between attempts. Device-open failures are never retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		c.backoff = backoff
	}
}

// WithClock replaces the clock used for retry backoff.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// NewClient creates a Client over open.
func NewClient(open Opener, opts ...Option) *Client {
	c := &Client{
		open:  open,
		clock: clockwork.NewRealClock(),
		locks: make(map[int]*syncutil.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) lock(bus int) func() {
	c.mu.Lock()
	l, ok := c.locks[bus]
	if !ok {
		l = &syncutil.Mutex{}
		c.locks[bus] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// do runs fn against a freshly opened backend for bus, holding the bus lock
// across retries.
func (c *Client) do(ctx context.Context, bus int, op string, fn func(Backend) error) error {
	unlock := c.lock(bus)
	defer unlock()

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			log.Debug().Err(err).Int("bus", bus).Int("attempt", attempt).Msgf("retrying %s", op)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s on bus %d: %w", op, bus, ctx.Err())
			case <-c.clock.After(c.backoff):
			}
		}

		err = c.once(bus, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s on bus %d: %w", op, bus, err)
	}
	return nil
}

func (c *Client) once(bus int, fn func(Backend) error) error {
	b, err := c.open(bus)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Warn().Err(cerr).Int("bus", bus).Msg("closing ddc backend")
		}
	}()
	return fn(b)
}

func retryable(err error) bool {
	if errors.Is(err, ErrDeviceOpen) {
		return false
	}
	return errors.Is(err, ErrTransportIO) ||
		errors.Is(err, ErrProtocolMismatch) ||
		errors.Is(err, ErrCorruptCapabilities)
}

// GetFeature reads the current and maximum value of a VCP feature.
func (c *Client) GetFeature(ctx context.Context, bus int, code byte) (Feature, error) {
	var f Feature
	err := c.do(ctx, bus, fmt.Sprintf("get vcp 0x%02X", code), func(b Backend) error {
		var err error
		f, err = b.GetFeature(ctx, code)
		return err
	})
	return f, err
}

// SetFeature writes a VCP feature value.
func (c *Client) SetFeature(ctx context.Context, bus int, code byte, value uint16) error {
	return c.do(ctx, bus, fmt.Sprintf("set vcp 0x%02X", code), func(b Backend) error {
		return b.SetFeature(ctx, code, value)
	})
}

// Capabilities reads and parses the capabilities string.
func (c *Client) Capabilities(ctx context.Context, bus int) (*Capabilities, error) {
	var raw string
	err := c.do(ctx, bus, "capabilities", func(b Backend) error {
		var err error
		raw, err = b.Capabilities(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ParseCapabilities(raw)
}

// Brightness returns the current brightness and its maximum.
func (c *Client) Brightness(ctx context.Context, bus int) (current, maxValue int, err error) {
	f, err := c.GetFeature(ctx, bus, VCPBrightness)
	if err != nil {
		return 0, 0, err
	}
	return int(f.Current), int(f.Max), nil
}

// SetBrightness writes brightness, clamped to 0..100.
func (c *Client) SetBrightness(ctx context.Context, bus, value int) error {
	value = min(max(value, 0), 100)
	return c.SetFeature(ctx, bus, VCPBrightness, uint16(value))
}

// ReadEDID reads the EDID through the bus backend, if it supports it.
func (c *Client) ReadEDID(ctx context.Context, bus int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, bus, "read edid", func(b Backend) error {
		r, ok := b.(EDIDReader)
		if !ok {
			return fmt.Errorf("%s: %w", b, errors.ErrUnsupported)
		}
		var err error
		out, err = r.ReadEDID(ctx)
		return err
	})
	return out, err
}

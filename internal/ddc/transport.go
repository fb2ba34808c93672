package ddc

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/host/v3/sysfs"
)

// Settle delays between a request write and the reply read. Monitor
// firmware returns garbage or short reads when polled earlier.
const (
	VCPDelay          = 50 * time.Millisecond
	CapabilitiesDelay = 200 * time.Millisecond
	EDIDDelay         = 10 * time.Millisecond
)

// Transport speaks DDC/CI and reads EDID on one I2C bus.
type Transport struct {
	bus    i2c.Bus
	closer io.Closer
	clock  clockwork.Clock
	path   string
}

// OpenTransport opens /dev/i2c-<n>.
func OpenTransport(n int, clock clockwork.Clock) (*Transport, error) {
	path := fmt.Sprintf("/dev/i2c-%d", n)
	bus, err := sysfs.NewI2C(n)
	if err != nil {
		return nil, &TransportError{Kind: ErrDeviceOpen, Op: "open", Path: path, Err: err}
	}
	t := NewTransport(bus, path, clock)
	t.closer = bus
	return t, nil
}

// NewTransport wraps an already open bus. Close is a no-op unless the bus
// was opened by OpenTransport.
func NewTransport(bus i2c.Bus, path string, clock clockwork.Clock) *Transport {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Transport{bus: bus, path: path, clock: clock}
}

func (t *Transport) String() string {
	return "i2c:" + t.path
}

func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	if err := t.closer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	return nil
}

// GetFeature sends a Get VCP Feature request and decodes the reply.
func (t *Transport) GetFeature(ctx context.Context, code byte) (Feature, error) {
	if err := t.write(DDCAddr, EncodeGetVCP(code)); err != nil {
		return Feature{}, err
	}
	if err := t.settle(ctx, VCPDelay); err != nil {
		return Feature{}, err
	}

	buf := make([]byte, getVCPReplyLength)
	if err := t.read(DDCAddr, buf); err != nil {
		return Feature{}, err
	}
	f, err := DecodeGetVCPReply(code, buf)
	if err != nil {
		return Feature{}, fmt.Errorf("%s: %w", t.path, err)
	}

	log.Debug().Str("path", t.path).Uint8("code", code).
		Uint16("current", f.Current).Uint16("max", f.Max).Msg("get vcp")
	return f, nil
}

// SetFeature sends a Set VCP Feature request. There is no reply; the
// settle delay still applies before the bus may be used again.
func (t *Transport) SetFeature(ctx context.Context, code byte, value uint16) error {
	if err := t.write(DDCAddr, EncodeSetVCP(code, value)); err != nil {
		return err
	}
	log.Debug().Str("path", t.path).Uint8("code", code).Uint16("value", value).Msg("set vcp")
	return t.settle(ctx, VCPDelay)
}

// Capabilities sends a Capabilities Request and returns the cleaned reply.
func (t *Transport) Capabilities(ctx context.Context) (string, error) {
	if err := t.write(DDCAddr, EncodeCapabilitiesRequest()); err != nil {
		return "", err
	}
	if err := t.settle(ctx, CapabilitiesDelay); err != nil {
		return "", err
	}

	buf := make([]byte, capsReplyLength)
	if err := t.read(DDCAddr, buf); err != nil {
		return "", err
	}
	caps, err := DecodeCapabilitiesReply(buf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.path, err)
	}
	return caps, nil
}

// ReadEDID reads the EDID base block from address 0x50 of the same bus.
func (t *Transport) ReadEDID(ctx context.Context) ([]byte, error) {
	if err := t.write(EDIDAddr, []byte{0x00}); err != nil {
		return nil, err
	}
	if err := t.settle(ctx, EDIDDelay); err != nil {
		return nil, err
	}

	buf := make([]byte, 128)
	if err := t.read(EDIDAddr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *Transport) write(addr uint16, w []byte) error {
	if err := t.bus.Tx(addr, w, nil); err != nil {
		return &TransportError{Kind: ErrTransportIO, Op: fmt.Sprintf("write 0x%02X", addr), Path: t.path, Err: err}
	}
	return nil
}

func (t *Transport) read(addr uint16, r []byte) error {
	if err := t.bus.Tx(addr, nil, r); err != nil {
		return &TransportError{Kind: ErrTransportIO, Op: fmt.Sprintf("read 0x%02X", addr), Path: t.path, Err: err}
	}
	return nil
}

// settle blocks for d. Cancelling ctx aborts the transaction before the
// reply is read.
func (t *Transport) settle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: settle: %w", t.path, ctx.Err())
	case <-t.clock.After(d):
		return nil
	}
}

// I2COpener returns an Opener for direct /dev/i2c-N access.
func I2COpener(clock clockwork.Clock) Opener {
	return func(bus int) (Backend, error) {
		t, err := OpenTransport(bus, clock)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

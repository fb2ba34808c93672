package ddc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/physic"
)

// simMonitor is an i2c.Bus that behaves like a DDC/CI capable monitor.
type simMonitor struct {
	values   map[byte]uint16
	caps     string
	edid     []byte
	pending  []byte
	log      []string
	writeErr error
	readErr  error
	mu       sync.Mutex
}

func newSimMonitor() *simMonitor {
	return &simMonitor{
		values: map[byte]uint16{VCPBrightness: 50},
		caps:   "(mccs_ver(2.1)type(lcd)vcp(10 12 14 60 62))",
	}
}

func (*simMonitor) String() string                 { return "sim" }
func (*simMonitor) SetSpeed(physic.Frequency) error { return nil }

func (m *simMonitor) Tx(addr uint16, w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(w) > 0 {
		m.log = append(m.log, "w")
		if m.writeErr != nil {
			return m.writeErr
		}
		m.handleWrite(addr, w)
	}
	if len(r) > 0 {
		m.log = append(m.log, "r")
		if m.readErr != nil {
			return m.readErr
		}
		copy(r, m.pending)
	}
	return nil
}

func (m *simMonitor) handleWrite(addr uint16, w []byte) {
	if addr == EDIDAddr {
		m.pending = m.edid
		return
	}
	switch w[2] {
	case opGetVCP:
		code := w[3]
		v := m.values[code]
		m.pending = []byte{0x6E, 0x88, 0x02, 0x00, code, 0x00, 0x00, 100, byte(v >> 8), byte(v), 0x00, 0x00}
	case opSetVCP:
		m.values[w[3]] = uint16(w[4])<<8 | uint16(w[5])
		m.pending = nil
	case opCapabilities:
		reply := append([]byte{0x6E, byte(len(m.caps)+1) | 0x80, 0xE3}, m.caps...)
		m.pending = append(reply, 0x00) // checksum, not verified
	}
}

func (m *simMonitor) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// autoAdvance keeps firing every timer registered on fc until the test ends.
func autoAdvance(t *testing.T, fc *clockwork.FakeClock) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})
	go func() {
		defer close(done)
		for {
			if err := fc.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			fc.Advance(time.Second)
		}
	}()
}

var errBus = errors.New("remote I/O error")

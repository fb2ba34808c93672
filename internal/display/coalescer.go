package display

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"brightctl/internal/syncutil"
)

// DefaultCooldown spaces hardware writes to one display.
const DefaultCooldown = 150 * time.Millisecond

// SetFunc performs one write.
type SetFunc func(ctx context.Context, key string, value int) error

// Result reports the outcome of one write.
type Result struct {
	Key   string
	Value int
	Err   error
}

// Coalescer serialises writes per key. While a write or its cooldown is
// pending, newer values replace older ones, so only the latest value
// reaches the device. Writes in flight are never cancelled.
type Coalescer struct {
	set      SetFunc
	cooldown time.Duration
	onResult func(Result)

	mu     syncutil.Mutex
	slots  map[string]*slot
	closed bool
	wg     sync.WaitGroup
}

type slot struct {
	limiter *rate.Limiter
	value   int
	pending bool
	running bool
}

// NewCoalescer creates a Coalescer. onResult may be nil.
func NewCoalescer(set SetFunc, cooldown time.Duration, onResult func(Result)) *Coalescer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Coalescer{
		set:      set,
		cooldown: cooldown,
		onResult: onResult,
		slots:    make(map[string]*slot),
	}
}

// Submit queues value for key. It never blocks. Submissions after Close
// are dropped.
func (c *Coalescer) Submit(key string, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	s, ok := c.slots[key]
	if !ok {
		s = &slot{limiter: rate.NewLimiter(rate.Every(c.cooldown), 1)}
		c.slots[key] = s
	}
	s.value = value
	s.pending = true
	if s.running {
		return
	}
	s.running = true
	c.wg.Add(1)
	go c.drain(key, s)
}

func (c *Coalescer) drain(key string, s *slot) {
	defer c.wg.Done()
	ctx := context.Background()

	for {
		// Wait only fails for a cancelled context or a burst of zero.
		_ = s.limiter.Wait(ctx)

		c.mu.Lock()
		if !s.pending {
			s.running = false
			c.mu.Unlock()
			return
		}
		value := s.value
		s.pending = false
		c.mu.Unlock()

		err := c.set(ctx, key, value)
		if c.onResult != nil {
			c.onResult(Result{Key: key, Value: value, Err: err})
		}
	}
}

// Close stops accepting values and waits for pending writes to finish.
func (c *Coalescer) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

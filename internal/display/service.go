package display

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"brightctl/internal/syncutil"
)

// EventKind tells what an Event reports.
type EventKind int

const (
	EventDiscovered EventKind = iota // Displays holds a fresh discovery pass
	EventSamples                     // Samples holds a ReadAll result
	EventSet                         // Sample holds a finished write
)

// Event is sent by Service from its worker goroutines.
type Event struct {
	Kind     EventKind
	Displays []Info
	Samples  []Sample
	Sample   Sample
	Err      error
}

// Service runs discovery, reads and coalesced writes off the caller's
// goroutine and reports back through Events. Display records are only
// touched by the worker that produced them and by the owner after receipt.
type Service struct {
	registry *Registry
	ctrl     *Controller
	pref     Method
	session  *Session

	coalescer *Coalescer
	events    chan Event
	wg        sync.WaitGroup

	mu       syncutil.Mutex
	displays map[string]Info
}

// NewService creates a Service. Close must be called to release it.
func NewService(registry *Registry, ctrl *Controller, pref Method, cooldown time.Duration) *Service {
	s := &Service{
		registry: registry,
		ctrl:     ctrl,
		pref:     pref,
		session:  NewSession(),
		events:   make(chan Event, 16),
		displays: make(map[string]Info),
	}
	s.coalescer = NewCoalescer(s.write, cooldown, s.written)
	return s
}

// Events delivers results. It is closed by Close.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Session returns the session tracking writes made through the service.
func (s *Service) Session() *Session {
	return s.session
}

func (s *Service) emit(e Event) {
	s.events <- e
}

func (s *Service) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Refresh starts a discovery pass.
func (s *Service) Refresh(ctx context.Context) {
	s.spawn(func() {
		displays, err := s.registry.Discover(ctx)
		s.Use(displays)
		s.emit(Event{Kind: EventDiscovered, Displays: displays, Err: err})
	})
}

// Use replaces the known displays without a discovery pass.
func (s *Service) Use(displays []Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.displays)
	for _, d := range displays {
		s.displays[d.Key()] = d
	}
}

// ReadAll starts reading every known display. Originals are saved in the
// session on first read.
func (s *Service) ReadAll(ctx context.Context) {
	s.spawn(func() {
		displays := s.Displays()
		samples := s.ctrl.ReadAll(ctx, displays, s.pref)
		for _, smp := range samples {
			if smp.Err == nil {
				s.session.SaveOriginal(smp.Key, smp.Value)
			}
		}
		s.emit(Event{Kind: EventSamples, Samples: samples})
	})
}

// Displays returns the displays of the last discovery pass.
func (s *Service) Displays() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.displays))
	for _, d := range s.displays {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Info) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}

// SetBrightness queues a write. Rapid calls for one display are coalesced.
func (s *Service) SetBrightness(key string, value int) error {
	s.mu.Lock()
	_, ok := s.displays[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown display %q", ErrNoControl, key)
	}
	s.coalescer.Submit(key, min(max(value, 0), 100))
	return nil
}

func (s *Service) write(ctx context.Context, key string, value int) error {
	s.mu.Lock()
	d, ok := s.displays[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown display %q", ErrNoControl, key)
	}

	m, err := s.ctrl.SetBrightness(ctx, &d, value, s.pref)
	if err != nil {
		return err
	}
	s.session.Update(key, value)
	s.session.Remember(key, m, value)
	return nil
}

func (s *Service) written(r Result) {
	if r.Err != nil {
		log.Warn().Err(r.Err).Str("display", r.Key).Msg("brightness write failed")
	}
	s.emit(Event{Kind: EventSet, Sample: Sample{Key: r.Key, Value: r.Value, Err: r.Err}, Err: r.Err})
}

// Close flushes pending writes, waits for workers and closes Events.
// The caller must keep receiving from Events until it is closed.
func (s *Service) Close() {
	s.coalescer.Close()
	s.wg.Wait()
	close(s.events)
}

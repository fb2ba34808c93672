package display

import (
	"slices"

	"brightctl/internal/syncutil"
)

// Session tracks original and current brightness per display key so a
// change can be confirmed or reverted. It also remembers the last value
// written through each method.
type Session struct {
	mu     syncutil.Mutex
	states map[string]*sessionState
}

type sessionState struct {
	original    int
	current     int
	hasOriginal bool
	last        map[Method]int
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{states: make(map[string]*sessionState)}
}

func (s *Session) state(key string) *sessionState {
	st, ok := s.states[key]
	if !ok {
		st = &sessionState{last: make(map[Method]int)}
		s.states[key] = st
	}
	return st
}

// SaveOriginal records value as the original unless one is already saved.
func (s *Session) SaveOriginal(key string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(key)
	if st.hasOriginal {
		return
	}
	st.original = value
	st.current = value
	st.hasOriginal = true
}

// Update records the current value.
func (s *Session) Update(key string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(key).current = value
}

// Changed lists, sorted, the keys whose current value differs from the
// original.
func (s *Session) Changed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k, st := range s.states {
		if st.hasOriginal && st.current != st.original {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// HasChanges reports whether any display differs from its original.
func (s *Session) HasChanges() bool {
	return len(s.Changed()) > 0
}

// Confirm makes the current values the new originals.
func (s *Session) Confirm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		if st.hasOriginal {
			st.original = st.current
		}
	}
}

// Revert resets current values to the originals and returns, per changed
// key, the value to write back.
func (s *Session) Revert() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := make(map[string]int)
	for k, st := range s.states {
		if st.hasOriginal && st.current != st.original {
			restore[k] = st.original
			st.current = st.original
		}
	}
	return restore
}

// Original returns the saved original for key.
func (s *Session) Original(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok || !st.hasOriginal {
		return 0, false
	}
	return st.original, true
}

// Remember stores the last value written to key through m.
func (s *Session) Remember(key string, m Method, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(key).last[m] = value
}

// Last returns the value last written to key through m.
func (s *Session) Last(key string, m Method) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return 0, false
	}
	v, ok := st.last[m]
	return v, ok
}

package wlan

import (
	"sync"
	"time"
)

// scanTimer fires the periodic scan. In once mode it pauses itself after
// the first tick the callback accepts.
type scanTimer struct {
	interval time.Duration
	fire     func() bool

	mu      sync.Mutex
	t       *time.Timer
	gen     uint64
	running bool
	once    bool
	closed  bool
}

func newScanTimer(interval time.Duration, fire func() bool) *scanTimer {
	return &scanTimer{interval: interval, fire: fire}
}

// toggle resumes the timer with an immediate tick, or pauses it.
func (s *scanTimer) toggle(start, once bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.gen++
	s.once = once
	s.running = start
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
	if start {
		s.schedule(0)
	}
}

// schedule arms the next tick. Called with s.mu held.
func (s *scanTimer) schedule(d time.Duration) {
	gen := s.gen
	s.t = time.AfterFunc(d, func() { s.tick(gen) })
}

func (s *scanTimer) tick(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	handled := s.fire()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || gen != s.gen {
		return
	}
	if handled && s.once {
		s.running = false
		s.once = false
		s.t = nil
		return
	}
	s.schedule(s.interval)
}

func (s *scanTimer) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *scanTimer) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.running = false
	s.gen++
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
}

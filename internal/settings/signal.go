package settings

import "sync"

// EventType identifies what the settings app reports to its host.
type EventType int

const (
	EventEnterDeveloperMode EventType = iota
	EventEnterScreen
)

func (e EventType) String() string {
	switch e {
	case EventEnterDeveloperMode:
		return "ENTER_DEVELOPER_MODE"
	case EventEnterScreen:
		return "ENTER_SCREEN"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted on the manager's signal.
type Event struct {
	Type EventType
	// Screen is set for EventEnterScreen.
	Screen Screen
}

type slot struct {
	id int
	fn func(Event) bool
}

// Signal delivers events to slots in connection order. Emission stops at
// the first slot that returns true.
type Signal struct {
	mu     sync.Mutex
	nextID int
	slots  []slot
}

// Connect adds fn and returns a function that removes it.
func (s *Signal) Connect(fn func(Event) bool) (disconnect func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.slots = append(s.slots, slot{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sl := range s.slots {
			if sl.id == id {
				s.slots = append(s.slots[:i], s.slots[i+1:]...)
				return
			}
		}
	}
}

// Emit calls slots until one returns true and reports whether any did.
func (s *Signal) Emit(ev Event) bool {
	s.mu.Lock()
	slots := append([]slot(nil), s.slots...)
	s.mu.Unlock()

	for _, sl := range slots {
		if sl.fn(ev) {
			return true
		}
	}
	return false
}

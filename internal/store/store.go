package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/muurk/wlanmgr/internal/logging"
	"go.uber.org/zap"
)

// Persisted keys.
const (
	KeyWlanSwitch   = "wlan_switch"
	KeyWlanSSID     = "wlan_ssid"
	KeyWlanPassword = "wlan_password"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrTypeMismatch is returned when a key is read as the wrong type.
	ErrTypeMismatch = errors.New("store: value type mismatch")
)

// Operation is the kind of change an Event reports.
type Operation int

const (
	// OpUpdate reports a written value.
	OpUpdate Operation = iota + 1
)

func (o Operation) String() string {
	if o == OpUpdate {
		return "UPDATE"
	}
	return "UNKNOWN"
}

// Event is published to subscribers after a successful write.
type Event struct {
	Key       string
	Operation Operation
	// Sender is whatever the writer passed; subscribers compare it with
	// themselves to skip their own writes.
	Sender any
}

// Store is a small typed key-value store with change notification.
type Store interface {
	GetInt(key string) (int, error)
	SetInt(key string, v int, sender any) error
	GetString(key string) (string, error)
	SetString(key string, v string, sender any) error
	Subscribe(fn func(Event)) (cancel func())
	Close() error
}

type kind uint8

const (
	kindInt kind = iota + 1
	kindString
)

// value is the unit each backend persists.
type value struct {
	Kind kind   `json:"kind" msgpack:"k"`
	Int  int64  `json:"int,omitempty" msgpack:"i,omitempty"`
	Str  string `json:"str,omitempty" msgpack:"s,omitempty"`
}

// backend is implemented by the memory, bolt and badger engines.
type backend interface {
	get(key string) (value, error)
	put(key string, v value) error
	close() error
}

// KV implements Store over a backend.
type KV struct {
	name string
	b    backend

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

var _ Store = (*KV)(nil)

func newKV(name string, b backend) *KV {
	return &KV{
		name: name,
		b:    b,
		subs: make(map[int]func(Event)),
	}
}

// Backend returns the engine name ("memory", "bolt", "badger").
func (s *KV) Backend() string {
	return s.name
}

// GetInt reads an int value.
func (s *KV) GetInt(key string) (int, error) {
	v, err := s.b.get(key)
	if err != nil {
		return 0, err
	}
	if v.Kind != kindInt {
		return 0, fmt.Errorf("%w: %s is not an int", ErrTypeMismatch, key)
	}
	return int(v.Int), nil
}

// SetInt writes an int value and notifies subscribers.
func (s *KV) SetInt(key string, n int, sender any) error {
	if err := s.b.put(key, value{Kind: kindInt, Int: int64(n)}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.publish(Event{Key: key, Operation: OpUpdate, Sender: sender})
	return nil
}

// GetString reads a string value.
func (s *KV) GetString(key string) (string, error) {
	v, err := s.b.get(key)
	if err != nil {
		return "", err
	}
	if v.Kind != kindString {
		return "", fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, key)
	}
	return v.Str, nil
}

// SetString writes a string value and notifies subscribers.
func (s *KV) SetString(key string, str string, sender any) error {
	if err := s.b.put(key, value{Kind: kindString, Str: str}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.publish(Event{Key: key, Operation: OpUpdate, Sender: sender})
	return nil
}

// Subscribe registers fn for change events. Events are delivered
// synchronously on the writer's goroutine.
func (s *KV) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *KV) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	logging.Debug("Store updated", zap.String("backend", s.name), zap.String("key", ev.Key))
	for _, fn := range fns {
		fn(ev)
	}
}

// Close releases the backend.
func (s *KV) Close() error {
	return s.b.close()
}

// IntOrDefault reads key, writing def when the key is missing.
func IntOrDefault(s Store, key string, def int, sender any) (int, error) {
	n, err := s.GetInt(key)
	if errors.Is(err, ErrNotFound) {
		return def, s.SetInt(key, def, sender)
	}
	return n, err
}

// StringOrDefault reads key, writing def when the key is missing.
func StringOrDefault(s Store, key string, def string, sender any) (string, error) {
	str, err := s.GetString(key)
	if errors.Is(err, ErrNotFound) {
		return def, s.SetString(key, def, sender)
	}
	return str, err
}

package store

import "sync"

type memoryBackend struct {
	mu     sync.RWMutex
	values map[string]value
}

// NewMemory returns a Store that keeps values in process memory.
func NewMemory() *KV {
	return newKV(BackendMemory, &memoryBackend{values: make(map[string]value)})
}

func (m *memoryBackend) get(key string) (value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return value{}, ErrNotFound
	}
	return v, nil
}

func (m *memoryBackend) put(key string, v value) error {
	m.mu.Lock()
	m.values[key] = v
	m.mu.Unlock()
	return nil
}

func (m *memoryBackend) close() error {
	return nil
}

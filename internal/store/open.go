package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
)

// Open opens the named backend at path. For bolt, path is the database
// file; for badger, a directory. Parent directories are created.
func Open(backend, path string) (*KV, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendBolt:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return OpenBolt(path)
	case BackendBadger:
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return OpenBadger(BadgerOptions{Dir: path})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

package store

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// BadgerOptions configures the badger backend.
type BadgerOptions struct {
	// Dir holds the badger data files. Required unless InMemory.
	Dir string
	// InMemory runs badger without disk persistence.
	InMemory bool
}

type badgerBackend struct {
	db *badger.DB
}

// OpenBadger opens a badger database. Values are msgpack-encoded.
func OpenBadger(opts BadgerOptions) (*KV, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: badger directory is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{logging.Named("badger").Sugar()})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return newKV(BackendBadger, &badgerBackend{db: db}), nil
}

func (b *badgerBackend) get(key string) (value, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return value{}, ErrNotFound
	}
	if err != nil {
		return value{}, err
	}

	var v value
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		return value{}, fmt.Errorf("could not decode %s: %w", key, err)
	}
	return v, nil
}

func (b *badgerBackend) put(key string, v value) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (b *badgerBackend) close() error {
	return b.db.Close()
}

// badgerLogger routes badger's printf-style logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

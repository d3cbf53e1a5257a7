package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var settingsBucket = []byte("settings")

type boltBackend struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) a bbolt file at path. Values are
// stored as JSON in a single bucket.
func OpenBolt(path string) (*KV, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings bucket: %w", err)
	}

	return newKV(BackendBolt, &boltBackend{db: db}), nil
}

func (b *boltBackend) get(key string) (value, error) {
	var v value
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(settingsBucket)
		if bucket == nil {
			return ErrNotFound
		}

		payload := bucket.Get([]byte(key))
		if payload == nil || bytes.Equal(payload, []byte("null")) {
			return ErrNotFound
		}

		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("could not unmarshal %s: %w", key, err)
		}
		return nil
	})
	return v, err
}

func (b *boltBackend) put(key string, v value) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(settingsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), payload)
	})
}

func (b *boltBackend) close() error {
	return b.db.Close()
}

package kv

import (
	"context"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const slotsBktName = "slots"

// Bolt is a storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage in the given directory.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "newsdeck.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{slotsBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Get returns the value of the slot.
func (b *Bolt) Get(_ context.Context, key string) (value string, ok bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bts := tx.Bucket([]byte(slotsBktName)).Get([]byte(key))
		if bts == nil {
			return nil
		}

		// bolt's slice is valid only within the transaction
		value, ok = string(bts), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("view storage: %w", err)
	}

	return value, ok, nil
}

// Set overwrites the value of the slot.
func (b *Bolt) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(slotsBktName)).Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("put slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }

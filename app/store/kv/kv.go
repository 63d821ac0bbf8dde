// Package kv provides durable key-value storages with named slots,
// used as a backing for the bookmark store.
package kv

import (
	"context"
	"sync"
)

// Memory is an in-memory storage, its content doesn't outlive the process.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory makes new empty Memory storage.
func NewMemory() *Memory {
	return &Memory{slots: map[string]string{}}
}

// Get returns the value of the slot.
func (m *Memory) Get(_ context.Context, key string) (value string, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok = m.slots[key]
	return value, ok, nil
}

// Set overwrites the value of the slot.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }

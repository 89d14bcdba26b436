package store

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend used for tests and local development.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]interface{})}
}

// Get returns the stored values for the requested keys.
func (b *MemoryBackend) Get(ctx context.Context, keys ...string) (map[string]interface{}, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		if v, ok := b.values[key]; ok {
			result[key] = v
		}
	}
	return result, nil
}

// Set upserts the given key/value pairs.
func (b *MemoryBackend) Set(ctx context.Context, items map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, value := range items {
		b.values[key] = value
	}
	return nil
}

package config

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
)

// KV is a persisted key-value area. Values are copied in and out; a caller
// never shares memory with the store.
type KV interface {
	// Get decodes the value stored under key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV is an in-process KV, mostly for tests.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailSet, when set, is returned by Set for matching keys.
	FailSet func(key string) error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *MemoryKV) Set(_ context.Context, key string, value any) error {
	if m.FailSet != nil {
		if err := m.FailSet(key); err != nil {
			return err
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether key is present.
func (m *MemoryKV) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}

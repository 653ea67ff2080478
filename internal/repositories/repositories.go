package repositories

import (
	"context"
	"sort"
	"sync"
)

// Storage keys of the persisted session.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// KeyValue is a string-keyed storage backend.
//
// Set writes every pair or none of them. Get omits missing keys from the result.
type KeyValue interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryKV implements [KeyValue] with a map guarded by a mutex.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty [MemoryKV]
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(ctx context.Context, pairs map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range pairs {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

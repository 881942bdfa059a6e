package kvstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps values in process memory. It is the default backend and
// the one used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	namespace string
	now       func() time.Time
}

func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]memoryEntry),
		namespace: namespace,
		now:       time.Now,
	}
}

func (m *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", nil
	}
	return entry.value, nil
}

func (m *MemoryStore) GenerateKey(operation, key string) string {
	return generateKey(m.namespace, operation, key)
}

package slots

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, session, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[slotKey(session, slot)]
	if !ok {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, session, slot string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[slotKey(session, slot)] = v
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, session string, slots ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range slots {
		delete(m.data, slotKey(session, s))
	}
	return nil
}

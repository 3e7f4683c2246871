package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/fyz_store/internal/slots"
)

// failingStore reads from an in-memory map but refuses every write.
type failingStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (f *failingStore) Get(_ context.Context, session, slot string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.data[session+slot]
	if !ok {
		return nil, slots.ErrSlotEmpty
	}
	return v, nil
}

func (f *failingStore) Set(context.Context, string, string, []byte) error {
	return errors.New("quota exceeded")
}

func (f *failingStore) Delete(context.Context, string, ...string) error {
	return errors.New("quota exceeded")
}

// flakyStore fails the next failGets reads and otherwise behaves like MemoryStore.
type flakyStore struct {
	*slots.MemoryStore
	mu       sync.Mutex
	failGets int
}

func (f *flakyStore) Get(ctx context.Context, session, slot string) ([]byte, error) {
	f.mu.Lock()
	if f.failGets > 0 {
		f.failGets--
		f.mu.Unlock()
		return nil, errors.New("i/o timeout")
	}
	f.mu.Unlock()
	return f.MemoryStore.Get(ctx, session, slot)
}

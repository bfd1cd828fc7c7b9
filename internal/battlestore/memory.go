package battlestore

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded slots in process memory. Used when no
// backend is configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, slot string, saved SavedBattle) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	raw, err := encode(saved)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.slots[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, slot string) (*SavedBattle, error) {
	key, err := normalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	raw, ok := m.slots[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(raw)
}

func (m *MemoryStore) Delete(ctx context.Context, slot string) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.slots, key)
	m.mu.Unlock()
	return nil
}

// Put stores raw bytes under slot as-is.
func (m *MemoryStore) Put(slot string, raw []byte) {
	m.mu.Lock()
	m.slots[slot] = append([]byte(nil), raw...)
	m.mu.Unlock()
}

func (m *MemoryStore) Close() error { return nil }

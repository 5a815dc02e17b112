package vault

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryStore is a volatile in-memory Store. Items are lost on shutdown, which
// is the intended behavior for hosts that must not persist raw values.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

// NewMemoryWithItems creates a MemoryStore seeded with the given items.
func NewMemoryWithItems(items []Item) *MemoryStore {
	s := NewMemory()
	for _, it := range items {
		s.items[it.Key] = it
	}
	return s
}

func (s *MemoryStore) Set(_ context.Context, item Item) error {
	if item.Key == "" {
		return eris.New("vault: key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.Key] = item
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return eris.Wrapf(ErrNotFound, "vault: delete %s", key)
	}
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]Item)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStorage keeps stores in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	stores map[string]*memoryStore
	order  []string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stores: make(map[string]*memoryStore),
	}
}

// Open returns the named store, creating it if needed.
func (m *MemoryStorage) Open(_ context.Context, name string) (Store, error) {
	if m == nil {
		return nil, errors.New("cache storage not initialized")
	}
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[name]; ok {
		return s, nil
	}
	s := &memoryStore{name: name, entries: make(map[string]*Entry)}
	m.stores[name] = s
	m.order = append(m.order, name)
	return s, nil
}

// Has reports whether the named store exists.
func (m *MemoryStorage) Has(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	_, ok := m.stores[name]
	m.mu.RUnlock()
	return ok, nil
}

// Delete removes the named store.
func (m *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[name]; !ok {
		return false, nil
	}
	delete(m.stores, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	StoresDeleted.Inc()
	return true, nil
}

// Names lists store names in creation order.
func (m *MemoryStorage) Names(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names, nil
}

// Match returns the first entry for key across all stores.
func (m *MemoryStorage) Match(ctx context.Context, key RequestKey) (*Entry, error) {
	m.mu.RLock()
	stores := make([]*memoryStore, 0, len(m.order))
	for _, name := range m.order {
		stores = append(stores, m.stores[name])
	}
	m.mu.RUnlock()

	k := key.String()
	for _, s := range stores {
		if entry, ok := s.get(k); ok {
			CacheHits.WithLabelValues(s.name).Inc()
			return entry, nil
		}
	}
	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

// Ping always succeeds for memory storage.
func (m *MemoryStorage) Ping(context.Context) error {
	return nil
}

type memoryStore struct {
	name    string
	mu      sync.RWMutex
	entries map[string]*Entry
}

func (s *memoryStore) Name() string {
	return s.name
}

func (s *memoryStore) get(key string) (*Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	return entry, ok
}

func (s *memoryStore) Match(_ context.Context, key RequestKey) (*Entry, error) {
	if entry, ok := s.get(key.String()); ok {
		CacheHits.WithLabelValues(s.name).Inc()
		return entry, nil
	}
	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

func (s *memoryStore) Put(_ context.Context, key RequestKey, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}
	s.mu.Lock()
	s.entries[key.String()] = entry.Clone()
	s.mu.Unlock()
	CacheWrites.WithLabelValues(s.name).Inc()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key RequestKey) (bool, error) {
	k := key.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[k]; !ok {
		return false, nil
	}
	delete(s.entries, k)
	return true, nil
}

func (s *memoryStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

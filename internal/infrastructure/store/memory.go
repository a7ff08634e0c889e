package store

import (
	"context"
	"sync"

	"github.com/allergenapp/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory key-value store.
// Values are copied on the way in and out, mimicking Redis behavior.
type MemoryStore struct {
	data  map[string][]byte
	lists map[string][][]byte
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

// Get retrieves a value from the store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, domain.ErrKeyNotFound
	}
	return clone(value), nil
}

// Set stores a value under key
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = clone(value)
	return nil
}

// Delete removes a value and any list stored under key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, key)
	delete(s.lists, key)
	return nil
}

// Append pushes value to the front of the list at key
func (s *MemoryStore) Append(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := s.lists[key]
	list = append(list, nil)
	copy(list[1:], list)
	list[0] = clone(value)
	s.lists[key] = list
	return nil
}

// Range returns up to limit list elements, newest first
func (s *MemoryStore) Range(ctx context.Context, key string, limit int) ([][]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	list := s.lists[key]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}

	out := make([][]byte, len(list))
	for i, v := range list {
		out[i] = clone(v)
	}
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

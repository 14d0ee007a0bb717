package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps items in a map. It is used in tests and when no durable
// storage is wanted.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]string
	writes  int
	failGet error
	failSet error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failGet != nil {
		return "", false, s.failGet
	}
	value, ok := s.items[key]
	return value, ok, nil
}

func (s *MemoryStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet != nil {
		return s.failSet
	}
	s.items[key] = value
	s.writes++
	return nil
}

// Writes reports how many successful SetItem calls were made.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// FailWith makes subsequent reads and writes return the given errors. Nil
// clears the failure.
func (s *MemoryStore) FailWith(getErr, setErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = getErr
	s.failSet = setErr
}

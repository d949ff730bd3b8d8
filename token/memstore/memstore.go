package memstore

import (
	"context"
	"sync"
)

// Store is an in-process key-value map. It never fails and is used both as a
// standalone backend and as the fallback behind a persistent one.
type Store struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
	return nil
}

// Len returns the number of keys held.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}

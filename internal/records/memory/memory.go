// Package memory provides process-local invoice history stores: a plain
// in-memory store and a JSON file store that survives restarts.
package memory

import (
	"context"
	"sync"

	"invoicer/internal/core"
	"invoicer/internal/records"
)

var (
	_ records.Store = (*Store)(nil)
	_ records.Store = (*FileStore)(nil)
)

// Store keeps the history in memory. Collections are copied on the way in
// and out so callers never share backing arrays with the store.
type Store struct {
	mu    sync.Mutex
	items core.Collection
	saves int
}

func New(seed core.Collection) *Store {
	return &Store{items: seed.Clone()}
}

// Load returns a copy of the stored history.
func (s *Store) Load(_ context.Context) (core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone(), nil
}

// Save replaces the stored history.
func (s *Store) Save(_ context.Context, c core.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = c.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

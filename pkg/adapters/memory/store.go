package memory

import (
	"context"
	"sync"

	"github.com/aretw0/rngsync/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use. State does not survive the process.
type Store struct {
	data map[string]domain.HistoryState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.HistoryState),
	}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, key string, state domain.HistoryState) error {
	// Copy so later mutations of the caller's slice don't leak in, similar to serialization
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, key string) (domain.HistoryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return domain.HistoryState{}, domain.ErrStateNotFound
	}

	// Copy on read so the caller can't mutate store state through the slice
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the keys holding state.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}

package middleware_test

import (
	"context"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.HistoryState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.HistoryState),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, state domain.HistoryState) error {
	s.data[key] = state.Clone()
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (domain.HistoryState, error) {
	state, ok := s.data[key]
	if !ok {
		return domain.HistoryState{}, domain.ErrStateNotFound
	}
	return state.Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)

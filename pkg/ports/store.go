package ports

import (
	"context"

	"github.com/aretw0/rngsync/pkg/domain"
)

// StateStore is the durable local storage slot holding the HistoryState.
// Keys are fixed application identifiers (domain.DefaultStateKey by default).
type StateStore interface {
	// Save persists the full state under key, replacing any previous value.
	Save(ctx context.Context, key string, state domain.HistoryState) error

	// Load retrieves the state stored under key.
	// Returns domain.ErrStateNotFound if nothing is stored.
	Load(ctx context.Context, key string) (domain.HistoryState, error)

	// Delete removes the state stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys that currently hold state.
	List(ctx context.Context) ([]string, error)
}

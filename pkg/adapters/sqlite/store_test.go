package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/rngsync/pkg/adapters/sqlite"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	ports.RunStateStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	state := domain.HistoryState{
		Entries: []domain.ResultEntry{{SourcePeer: "a.os", Range: domain.Range{Min: 0, Max: 3}, Value: 2}},
		Theme:   domain.ThemeDark,
	}
	require.NoError(t, first.Save(ctx, domain.DefaultStateKey, state))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	loaded, err := second.Load(ctx, domain.DefaultStateKey)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, loaded.Theme)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "a.os", loaded.Entries[0].SourcePeer)
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

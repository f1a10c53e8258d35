package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	observed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	sample := domain.HistoryState{
		Entries: []domain.ResultEntry{
			{SourcePeer: "b.os", OriginPeer: "a.os", Range: domain.Range{Min: 1, Max: 6}, Value: 2, Context: "second", ObservedAt: observed.Add(time.Minute)},
			{SourcePeer: "b.os", OriginPeer: "a.os", Range: domain.Range{Min: 1, Max: 6}, Value: 2, Context: "second", ObservedAt: observed.Add(time.Minute)},
			{SourcePeer: "a.os", OriginPeer: "a.os", Range: domain.Range{Min: 0, Max: 100}, Value: 77, ObservedAt: observed},
		},
		Theme: domain.ThemeDark,
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, key, sample)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sample.Theme, loaded.Theme)
		require.Len(t, loaded.Entries, len(sample.Entries), "duplicates must survive persistence")
		for i := range sample.Entries {
			assert.Equal(t, sample.Entries[i].SourcePeer, loaded.Entries[i].SourcePeer)
			assert.Equal(t, sample.Entries[i].Range, loaded.Entries[i].Range)
			assert.Equal(t, sample.Entries[i].Value, loaded.Entries[i].Value)
			assert.Equal(t, sample.Entries[i].Context, loaded.Entries[i].Context)
			assert.True(t, sample.Entries[i].ObservedAt.Equal(loaded.Entries[i].ObservedAt))
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		next := sample.Prepend(domain.ResultEntry{SourcePeer: "c.os", Range: domain.Range{Min: 0, Max: 1}, Value: 1, ObservedAt: observed})
		next.Theme = domain.ThemeLight
		require.NoError(t, store.Save(ctx, key, next))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.ThemeLight, loaded.Theme)
		require.Len(t, loaded.Entries, len(sample.Entries)+1)
		assert.Equal(t, "c.os", loaded.Entries[0].SourcePeer)
	})

	t.Run("Save Isolates Caller", func(t *testing.T) {
		state := sample.Clone()
		require.NoError(t, store.Save(ctx, key, state))
		state.Entries[0].SourcePeer = "mutated-after-save"

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "b.os", loaded.Entries[0].SourcePeer)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, domain.DefaultHistoryState())
		_ = store.Save(ctx, id2, domain.DefaultHistoryState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}

package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_MasksMatchingContext(t *testing.T) {
	underlying := NewMockStore()
	mw, err := middleware.NewRedactionMiddleware([]string{`(?i)password`, `^\d{3}-\d{2}-\d{4}$`})
	require.NoError(t, err)
	store := mw(underlying)

	state := domain.HistoryState{
		Entries: []domain.ResultEntry{
			{Context: "my Password is hunter2"},
			{Context: "123-45-6789"},
			{Context: "dice roll"},
			{},
		},
		Theme: domain.ThemeLight,
	}
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", state))

	stored, err := underlying.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, middleware.RedactedContext, stored.Entries[0].Context)
	assert.Equal(t, middleware.RedactedContext, stored.Entries[1].Context)
	assert.Equal(t, "dice roll", stored.Entries[2].Context)
	assert.Empty(t, stored.Entries[3].Context)

	// the caller's copy is untouched
	assert.Equal(t, "my Password is hunter2", state.Entries[0].Context)
}

func TestRedactionMiddleware_BadPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	underlying := NewMockStore()
	redact, err := middleware.NewRedactionMiddleware([]string{"secret"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, redact, encrypt)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", domain.HistoryState{
		Entries: []domain.ResultEntry{{Context: "top secret"}},
		Theme:   domain.ThemeLight,
	}))

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, middleware.RedactedContext, loaded.Entries[0].Context)
}

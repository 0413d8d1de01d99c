package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(time.Hour)

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	pair := models.TokenPair{AccessToken: "abc", RefreshToken: "def"}
	require.NoError(t, store.Save(ctx, "s1", pair))
	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "s1"))
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := New(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "s1", models.TokenPair{AccessToken: "abc"}))
	now = now.Add(30 * time.Second)
	_, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

// TestTokenStoreIntegration exercises the session table against a live database.
func TestTokenStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORAGE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORAGE_INTEGRATION=true to run this integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewTokenStore(ctx, dbURL, time.Hour)
	require.NoError(t, err)
	defer store.Close()

	sessionID := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	_, err = store.Load(ctx, sessionID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	pair := models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, store.Save(ctx, sessionID, pair))
	got, err := store.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	pair.AccessToken = ""
	require.NoError(t, store.Save(ctx, sessionID, pair))
	got, err = store.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "", got.AccessToken)

	require.NoError(t, store.Delete(ctx, sessionID))
	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.PurgeExpired(ctx)
	assert.NoError(t, err)
}

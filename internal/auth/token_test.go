package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inspector := NewTokenInspector(30 * time.Second)
	inspector.now = func() time.Time { return now }

	fresh := signed(t, jwt.MapClaims{"sub": "76561198031215761", "exp": now.Add(time.Hour).Unix()})
	stale := signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	nearly := signed(t, jwt.MapClaims{"exp": now.Add(10 * time.Second).Unix()})
	noExp := signed(t, jwt.MapClaims{"sub": "x"})

	exp, ok := inspector.Expiry(fresh)
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())

	assert.False(t, inspector.Expired(fresh))
	assert.True(t, inspector.Expired(stale))
	assert.True(t, inspector.Expired(nearly))
	assert.False(t, inspector.Expired(noExp))
	assert.False(t, inspector.Expired("opaque-token"))
	assert.False(t, inspector.Expired(""))
}

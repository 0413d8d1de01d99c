package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gbans-web/internal/guard"
	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/models/dto"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, 2*time.Second)
	require.NoError(t, err)
	return client
}

func TestCurrentProfile(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/current_profile", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"steam_id":"76561198031215761","permission_level":50,"ban_id":0,"name":"mod"}`))
	})

	profile, err := client.CurrentProfile(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, models.SteamID(76561198031215761), profile.SteamID)
	assert.Equal(t, models.PermissionModerator, profile.PermissionLevel)
	assert.Equal(t, "mod", profile.Name)

	_, err = client.CurrentProfile(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.CurrentProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCurrentProfileMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `<html>`,
		"guest steam id":  `{"steam_id":"0","permission_level":10}`,
		"bad steam id":    `{"steam_id":"abc"}`,
		"clan account id": `{"steam_id":"103582791429521412","permission_level":10}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.CurrentProfile(context.Background(), "token")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCurrentProfileBannedLevelIsDenied(t *testing.T) {
	for name, body := range map[string]string{
		"banned":  `{"steam_id":"76561198031215761","permission_level":0,"ban_id":0}`,
		"missing": `{"steam_id":76561198031215761}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			profile, err := client.CurrentProfile(context.Background(), "token")
			require.NoError(t, err)
			assert.Equal(t, models.PermissionGuest, profile.PermissionLevel)
			assert.Equal(t, guard.DenyPermission, guard.Evaluate(guard.Require(models.PermissionUser), profile))
			assert.Equal(t, guard.DenyPermission, guard.Evaluate(guard.RequireUnbanned(models.PermissionUser), profile))
		})
	}
}

func TestRefresh(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		var req dto.RefreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.RefreshToken {
		case "rotate":
			_, _ = w.Write([]byte(`{"access_token":"a2","refresh_token":"r2"}`))
		case "keep":
			_, _ = w.Write([]byte(`{"access_token":"a3"}`))
		case "empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})

	pair, err := client.Refresh(context.Background(), "rotate")
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, pair)

	pair, err = client.Refresh(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{AccessToken: "a3", RefreshToken: "keep"}, pair)

	_, err = client.Refresh(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = client.Refresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFetchJSONStatusError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := client.FetchJSON(context.Background(), "", http.MethodGet, "/api/servers/state", nil, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "/api/servers/state", statusErr.Path)
}

func TestLogout(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.Logout(context.Background(), "tok"))
	assert.True(t, called)
}

func TestLoginURL(t *testing.T) {
	client, err := New("https://api.example.com/", time.Second)
	require.NoError(t, err)

	raw := client.LoginURL("/report")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "steamcommunity.com", u.Host)

	q := u.Query()
	assert.Equal(t, "checkid_setup", q.Get("openid.mode"))
	assert.Equal(t, "https://api.example.com", q.Get("openid.realm"))

	returnTo, err := url.Parse(q.Get("openid.return_to"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", returnTo.Path)
	assert.Equal(t, "/report", returnTo.Query().Get("return_url"))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api", time.Second)
	assert.Error(t, err)
}

func TestFetchJSONKeepsQuery(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/profile", r.URL.Path)
		assert.Equal(t, "76561198031215761", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	var out map[string]bool
	require.NoError(t, client.FetchJSON(context.Background(), "", http.MethodGet, "/api/profile?query=76561198031215761", nil, &out))
	assert.True(t, out["ok"])
}

func TestFetchJSONKeepsEscapedSegments(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wiki/slug/admin%3Fx=1", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{}`))
	})
	var out map[string]any
	require.NoError(t, client.FetchJSON(context.Background(), "", http.MethodGet, "/api/wiki/slug/admin%3Fx=1", nil, &out))
}

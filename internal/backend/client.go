// Package backend talks to the moderation platform API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/models/dto"
)

var (
	// ErrUnauthorized means the backend rejected the presented credential.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrMalformed means the backend answered with a body the shell cannot use.
	ErrMalformed = errors.New("backend: malformed response")
)

const (
	steamOpenIDEndpoint = "https://steamcommunity.com/openid/login"
	openIDNamespace     = "http://specs.openid.net/auth/2.0"
	openIDSelect        = "http://specs.openid.net/auth/2.0/identifier_select"
	maxErrorBody        = 4 << 10
)

// StatusError reports an unexpected HTTP status from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s %s returned %d", e.Method, e.Path, e.Code)
}

// Client calls the backend over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	return &Client{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

// CurrentProfile resolves the viewer owning accessToken.
func (c *Client) CurrentProfile(ctx context.Context, accessToken string) (models.UserProfile, error) {
	if accessToken == "" {
		return models.UserProfile{}, ErrUnauthorized
	}
	var profile models.UserProfile
	if err := c.FetchJSON(ctx, accessToken, http.MethodGet, "/api/current_profile", nil, &profile); err != nil {
		return models.UserProfile{}, err
	}
	if !profile.SteamID.Valid() {
		return models.UserProfile{}, fmt.Errorf("%w: invalid steam id %d", ErrMalformed, profile.SteamID)
	}
	if profile.PermissionLevel < models.PermissionGuest {
		profile.PermissionLevel = models.PermissionGuest
	}
	return profile, nil
}

// Refresh exchanges refreshToken for a new credential pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, ErrUnauthorized
	}
	var out dto.RefreshResponse
	req := dto.RefreshRequest{RefreshToken: refreshToken}
	if err := c.FetchJSON(ctx, "", http.MethodPost, "/api/auth/refresh", req, &out); err != nil {
		return models.TokenPair{}, err
	}
	if out.AccessToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: empty access token", ErrMalformed)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return models.TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

// Logout invalidates the server-side session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.FetchJSON(ctx, accessToken, http.MethodGet, "/api/auth/logout", nil, nil)
}

// LoginURL returns the Steam OpenID login URL. After authenticating, the
// backend callback redirects the browser back to returnPath.
func (c *Client) LoginURL(returnPath string) string {
	callback := c.baseURL.JoinPath("/auth/callback")
	q := callback.Query()
	q.Set("return_url", returnPath)
	callback.RawQuery = q.Encode()

	realm := url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host}
	v := url.Values{}
	v.Set("openid.ns", openIDNamespace)
	v.Set("openid.mode", "checkid_setup")
	v.Set("openid.return_to", callback.String())
	v.Set("openid.realm", realm.String())
	v.Set("openid.identity", openIDSelect)
	v.Set("openid.claimed_id", openIDSelect)
	return steamOpenIDEndpoint + "?" + v.Encode()
}

// FetchJSON performs a request against path and decodes the JSON answer into out.
// A nil out discards the body. accessToken, when set, is sent as a bearer credential.
func (c *Client) FetchJSON(ctx context.Context, accessToken, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	resource, rawQuery, _ := strings.Cut(path, "?")
	target := c.baseURL.JoinPath(resource)
	target.RawQuery = rawQuery
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformed, method, path, err)
	}
	return nil
}

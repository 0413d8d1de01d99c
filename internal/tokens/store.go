// Package tokens persists the access and refresh credentials of one browser.
//
// Stores never report errors. When the backing medium is unavailable, reads
// return an empty string and writes are dropped, so callers treat a missing
// token exactly like an expired one. Writing an empty string clears the
// credential.
package tokens

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Store reads and writes the two credential strings of a single browser.
type Store interface {
	ReadAccessToken() string
	WriteAccessToken(token string)
	ReadRefreshToken() string
	WriteRefreshToken(token string)
}

// Provider binds a Store to one browser request.
type Provider interface {
	ForRequest(w http.ResponseWriter, r *http.Request) Store
}

// CookieOptions controls the cookies a provider writes.
type CookieOptions struct {
	// Secure forces the Secure attribute even on plain-http requests.
	Secure bool
	// MaxAge is how long the browser keeps the cookie.
	MaxAge time.Duration
}

func (o CookieOptions) cookie(r *http.Request, name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure || isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	} else if o.MaxAge > 0 {
		c.MaxAge = int(o.MaxAge.Seconds())
	}
	return c
}

func isHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func readCookie(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryStore returns a store seeded with the given credentials.
func NewMemoryStore(access, refresh string) *MemoryStore {
	return &MemoryStore{access: access, refresh: refresh}
}

func (m *MemoryStore) ReadAccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

func (m *MemoryStore) WriteAccessToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = token
}

func (m *MemoryStore) ReadRefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *MemoryStore) WriteRefreshToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = token
}

// Unavailable is the Store used when no storage can be reached.
type Unavailable struct{}

func (Unavailable) ReadAccessToken() string  { return "" }
func (Unavailable) WriteAccessToken(string)  {}
func (Unavailable) ReadRefreshToken() string { return "" }
func (Unavailable) WriteRefreshToken(string) {}

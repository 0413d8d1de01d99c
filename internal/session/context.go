// Package session holds the current viewer of one browser request.
package session

import (
	"context"
	"sync"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/tokens"
)

// Fence orders competing profile updates. See Context.Begin.
type Fence uint64

// Context is the single source of truth for who the viewer is. The profile
// is always replaced whole. Credentials are not copied here; the token
// accessors read and write the bound tokens.Store.
type Context struct {
	store tokens.Store

	mu        sync.RWMutex
	current   models.UserProfile
	issued    Fence
	committed Fence
	listeners []func(models.UserProfile)
}

// New returns a Context for a guest viewer backed by store.
func New(store tokens.Store) *Context {
	if store == nil {
		store = tokens.Unavailable{}
	}
	return &Context{store: store, current: models.Guest}
}

// CurrentUser returns the current profile.
func (c *Context) CurrentUser() models.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// SetCurrentUser replaces the profile and notifies subscribers.
// Unfenced writes supersede every fence issued before them.
func (c *Context) SetCurrentUser(profile models.UserProfile) {
	c.mu.Lock()
	c.current = profile
	c.issued++
	c.committed = c.issued
	listeners := append([]func(models.UserProfile){}, c.listeners...)
	c.mu.Unlock()
	notify(listeners, profile)
}

// Begin issues a fence for an update whose result arrives later.
func (c *Context) Begin() Fence {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Commit applies profile unless a newer fence has already committed.
// It reports whether the profile was applied.
func (c *Context) Commit(f Fence, profile models.UserProfile) bool {
	c.mu.Lock()
	if f < c.committed {
		c.mu.Unlock()
		return false
	}
	c.current = profile
	c.committed = f
	listeners := append([]func(models.UserProfile){}, c.listeners...)
	c.mu.Unlock()
	notify(listeners, profile)
	return true
}

// Subscribe registers fn to run after every profile replacement.
func (c *Context) Subscribe(fn func(models.UserProfile)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func notify(listeners []func(models.UserProfile), profile models.UserProfile) {
	for _, fn := range listeners {
		fn(profile)
	}
}

func (c *Context) GetToken() string             { return c.store.ReadAccessToken() }
func (c *Context) SetToken(token string)        { c.store.WriteAccessToken(token) }
func (c *Context) GetRefreshToken() string      { return c.store.ReadRefreshToken() }
func (c *Context) SetRefreshToken(token string) { c.store.WriteRefreshToken(token) }

// ClearTokens forgets both credentials.
func (c *Context) ClearTokens() {
	c.store.WriteAccessToken("")
	c.store.WriteRefreshToken("")
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying sc.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the session carried by ctx. A request without one
// gets a detached guest session.
func FromContext(ctx context.Context) *Context {
	if sc, ok := ctx.Value(contextKey{}).(*Context); ok && sc != nil {
		return sc
	}
	return New(nil)
}

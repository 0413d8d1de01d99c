package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

var _ storage.TokenBackend = (*Store)(nil)

type entry struct {
	tokens    models.TokenPair
	expiresAt time.Time
}

// Store keeps token pairs in process memory. Entries expire after ttl.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New creates an empty store. A non-positive ttl disables expiry.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Load returns the pair stored for sessionID.
func (s *Store) Load(_ context.Context, sessionID string) (models.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return models.TokenPair{}, storage.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return models.TokenPair{}, storage.ErrNotFound
	}
	return e.tokens, nil
}

// Save upserts the pair and refreshes its expiry.
func (s *Store) Save(_ context.Context, sessionID string, tokens models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{tokens: tokens}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[sessionID] = e
	return nil
}

// Delete removes the pair. Missing ids are not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

package tokens

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

// SessionCookieName carries the opaque id keying a server-side token pair.
const SessionCookieName = "gb_session"

// SessionProvider keeps credentials in a storage.TokenBackend and only an
// opaque session id in the browser.
type SessionProvider struct {
	backend storage.TokenBackend
	opts    CookieOptions
	logger  *slog.Logger
	newID   func() string
}

// NewSessionProvider returns a provider backed by backend.
func NewSessionProvider(backend storage.TokenBackend, opts CookieOptions, logger *slog.Logger) *SessionProvider {
	return &SessionProvider{
		backend: backend,
		opts:    opts,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

// ForRequest binds a backend-backed store to the request and its response.
func (p *SessionProvider) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return &sessionStore{provider: p, w: w, r: r}
}

type sessionStore struct {
	provider *SessionProvider
	w        http.ResponseWriter
	r        *http.Request

	mu        sync.Mutex
	loaded    bool
	sessionID string
	tokens    models.TokenPair
}

func (s *sessionStore) ctx() context.Context {
	if s.r == nil {
		return context.Background()
	}
	return s.r.Context()
}

func (s *sessionStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	id, ok := readCookie(s.r, SessionCookieName)
	if !ok {
		return
	}
	s.sessionID = id
	tokens, err := s.provider.backend.Load(s.ctx(), id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.provider.logger.Warn("token backend read failed", "error", err)
		}
		return
	}
	s.tokens = tokens
}

func (s *sessionStore) ReadAccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.tokens.AccessToken
}

func (s *sessionStore) ReadRefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.tokens.RefreshToken
}

func (s *sessionStore) WriteAccessToken(token string) {
	s.update(func(t *models.TokenPair) { t.AccessToken = token })
}

func (s *sessionStore) WriteRefreshToken(token string) {
	s.update(func(t *models.TokenPair) { t.RefreshToken = token })
}

func (s *sessionStore) update(apply func(*models.TokenPair)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	next := s.tokens
	apply(&next)

	if next.Empty() {
		if s.sessionID != "" {
			if err := s.provider.backend.Delete(s.ctx(), s.sessionID); err != nil {
				s.provider.logger.Warn("token backend delete failed", "error", err)
				return
			}
			if s.w != nil {
				http.SetCookie(s.w, s.provider.opts.cookie(s.r, SessionCookieName, ""))
			}
			s.sessionID = ""
		}
		s.tokens = next
		return
	}

	id := s.sessionID
	if id == "" {
		if s.w == nil {
			return
		}
		id = s.provider.newID()
	}
	if err := s.provider.backend.Save(s.ctx(), id, next); err != nil {
		s.provider.logger.Warn("token backend write dropped", "error", err)
		return
	}
	if id != s.sessionID {
		http.SetCookie(s.w, s.provider.opts.cookie(s.r, SessionCookieName, id))
		s.sessionID = id
	}
	s.tokens = next
}

package tokens

import (
	"log/slog"
	"net/http"
	"sync"
)

// Cookie names used by CookieProvider.
const (
	AccessCookieName  = "gb_access"
	RefreshCookieName = "gb_refresh"
)

// CookieProvider keeps both credentials in sealed, origin-scoped cookies.
type CookieProvider struct {
	sealer *Sealer
	opts   CookieOptions
	logger *slog.Logger
}

// NewCookieProvider returns a provider sealing cookie values with sealer.
func NewCookieProvider(sealer *Sealer, opts CookieOptions, logger *slog.Logger) *CookieProvider {
	return &CookieProvider{sealer: sealer, opts: opts, logger: logger}
}

// ForRequest binds a cookie-backed store to the request and its response.
func (p *CookieProvider) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return &cookieStore{provider: p, w: w, r: r, values: make(map[string]string)}
}

type cookieStore struct {
	provider *CookieProvider
	w        http.ResponseWriter
	r        *http.Request

	mu     sync.Mutex
	values map[string]string
}

func (s *cookieStore) ReadAccessToken() string    { return s.read(AccessCookieName) }
func (s *cookieStore) WriteAccessToken(t string)  { s.write(AccessCookieName, t) }
func (s *cookieStore) ReadRefreshToken() string   { return s.read(RefreshCookieName) }
func (s *cookieStore) WriteRefreshToken(t string) { s.write(RefreshCookieName, t) }

func (s *cookieStore) read(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.values[name]; ok {
		return value
	}
	sealed, ok := readCookie(s.r, name)
	if !ok {
		s.values[name] = ""
		return ""
	}
	plain, ok := s.provider.sealer.Open(sealed)
	if !ok {
		s.provider.logger.Warn("discarding unreadable token cookie", "cookie", name)
		plain = ""
	}
	s.values[name] = plain
	return plain
}

func (s *cookieStore) write(name, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	value := ""
	if token != "" {
		sealed, err := s.provider.sealer.Seal(token)
		if err != nil {
			s.provider.logger.Warn("token cookie write dropped", "cookie", name, "error", err)
			return
		}
		value = sealed
	}
	http.SetCookie(s.w, s.provider.opts.cookie(s.r, name, value))
	s.values[name] = token
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/gbans-web/internal/auth"
	"github.com/hongminglow/gbans-web/internal/config"
	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/http/handlers"
	"github.com/hongminglow/gbans-web/internal/metrics"
	"github.com/hongminglow/gbans-web/internal/middleware"
	"github.com/hongminglow/gbans-web/internal/pages"
	"github.com/hongminglow/gbans-web/internal/router"
	"github.com/hongminglow/gbans-web/internal/session"
	"github.com/hongminglow/gbans-web/internal/tokens"
)

// expirySkew treats access tokens this close to expiry as expired.
const expirySkew = 30 * time.Second

// Backend is everything the web shell needs from the API.
type Backend interface {
	session.IdentityResolver
	pages.Fetcher
	LoginURL(returnPath string) string
	Logout(ctx context.Context, accessToken string) error
}

// Dependencies are the collaborators a handler is built from.
type Dependencies struct {
	Tokens   tokens.Provider
	Backend  Backend
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// Routes overrides the site route table.
	Routes *router.Table
}

// NewHandler wires middleware and routes.
func NewHandler(cfg config.Config, deps Dependencies) (http.Handler, error) {
	logger := deps.Logger
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(deps.Registry)

	routes := deps.Routes
	if routes == nil {
		var err error
		routes, err = router.DefaultRoutes(pages.NewCatalog(deps.Backend))
		if err != nil {
			return nil, fmt.Errorf("build routes: %w", err)
		}
	}
	logger.Debug("routes loaded", "count", len(routes.Descriptors()))
	for _, dup := range routes.Duplicates() {
		logger.Warn("duplicate route registration", "route", dup)
	}

	renderer, err := pages.NewRenderer(cfg.SiteName)
	if err != nil {
		return nil, err
	}

	initializer := session.NewInitializer(deps.Backend, auth.NewTokenInspector(expirySkew), cfg.BootstrapTimeout, logger)
	observe := func(res session.Result) { m.IncrementBootstrap(string(res.Outcome)) }
	flashes := flash.Middleware(flash.Options{
		Secure: cfg.CookieSecure,
		OnSend: func(l flash.Level) { m.IncrementFlash(string(l)) },
	})

	authHandler := handlers.NewAuthHandler(initializer, deps.Backend, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	handlers.NewHealthHandler(time.Now()).Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORSOrigins))
		r.Use(middleware.Session(deps.Tokens, initializer, observe))
		authHandler.RegisterAPI(r)
		r.Options("/api/session", func(http.ResponseWriter, *http.Request) {})
	})

	r.Group(func(r chi.Router) {
		r.Use(flashes)
		r.Use(middleware.Session(deps.Tokens, initializer, observe))
		authHandler.Register(r)
		handlers.NewFlashHandler().Register(r)
		handlers.NewPageHandler(routes, renderer, deps.Backend, m, logger).Register(r)
	})

	return r, nil
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Dependencies) (*Server, error) {
	handler, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

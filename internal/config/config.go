package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Token store kinds selectable with TOKEN_STORE.
const (
	TokenStoreCookie   = "cookie"
	TokenStoreMemory   = "memory"
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

const minCookieSecretLen = 32

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string        `env:"PORT" envDefault:"8080"`
	SiteName         string        `env:"SITE_NAME" envDefault:"gbans"`
	SiteURL          string        `env:"SITE_URL" envDefault:"http://localhost:8080"`
	BackendURL       string        `env:"BACKEND_URL"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	BootstrapTimeout time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"3s"`
	TokenStore       string        `env:"TOKEN_STORE" envDefault:"cookie"`
	CookieSecret     string        `env:"COOKIE_SECRET"`
	CookieSecure     bool          `env:"COOKIE_SECURE" envDefault:"false"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisURL         string        `env:"REDIS_URL"`
	CORSOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.TokenStore = strings.ToLower(fallback(cfg.TokenStore, TokenStoreCookie))
	cfg.CORSOrigins = parseCSV(strings.Join(cfg.CORSOrigins, ","))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("BACKEND_URL is invalid: %w", err)
	}
	if _, err := url.ParseRequestURI(c.SiteURL); err != nil {
		return fmt.Errorf("SITE_URL is invalid: %w", err)
	}
	if c.BootstrapTimeout <= 0 || c.BackendTimeout <= 0 {
		return errors.New("BACKEND_TIMEOUT and BOOTSTRAP_TIMEOUT must be positive")
	}
	switch c.TokenStore {
	case TokenStoreCookie:
		if len(c.CookieSecret) < minCookieSecretLen {
			return fmt.Errorf("COOKIE_SECRET must be at least %d bytes", minCookieSecretLen)
		}
	case TokenStoreMemory:
	case TokenStorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres token store")
		}
	case TokenStoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis token store")
		}
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hongminglow/gbans-web/internal/config"
	"github.com/hongminglow/gbans-web/internal/storage/memory"
	"github.com/hongminglow/gbans-web/internal/storage/postgres"
	"github.com/hongminglow/gbans-web/internal/storage/redis"
	"github.com/hongminglow/gbans-web/internal/tokens"
)

const purgeInterval = time.Hour

// NewTokenProvider builds the token provider selected by cfg.TokenStore.
// The returned func releases whatever backend the provider holds.
func NewTokenProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (tokens.Provider, func(), error) {
	opts := tokens.CookieOptions{Secure: cfg.CookieSecure, MaxAge: cfg.SessionTTL}
	switch cfg.TokenStore {
	case config.TokenStoreCookie:
		sealer, err := tokens.NewSealer(cfg.CookieSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("cookie token store: %w", err)
		}
		return tokens.NewCookieProvider(sealer, opts, logger), func() {}, nil
	case config.TokenStoreMemory:
		return tokens.NewSessionProvider(memory.New(cfg.SessionTTL), opts, logger), func() {}, nil
	case config.TokenStorePostgres:
		store, err := postgres.NewTokenStore(ctx, cfg.DatabaseURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres token store: %w", err)
		}
		stop := purgeExpired(store, logger)
		return tokens.NewSessionProvider(store, opts, logger), func() {
			stop()
			store.Close()
		}, nil
	case config.TokenStoreRedis:
		store, err := redis.New(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis token store: %w", err)
		}
		return tokens.NewSessionProvider(store, opts, logger), func() {
			if err := store.Close(); err != nil {
				logger.Warn("close redis token store", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpired deletes expired sessions every purgeInterval until stopped.
func purgeExpired(store purger, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.PurgeExpired(ctx)
				if err != nil {
					logger.Warn("purge expired sessions", "error", err)
					continue
				}
				logger.Debug("purged expired sessions", "count", n)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

var _ storage.TokenBackend = (*Store)(nil)

const (
	keyPrefix    = "gbans:web:session:"
	fieldAccess  = "access_token"
	fieldRefresh = "refresh_token"
)

// Store keeps each token pair in a hash that expires after ttl.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New connects to the server at url and verifies it answers PING.
func New(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Load reads the pair stored for sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (models.TokenPair, error) {
	values, err := s.client.HGetAll(ctx, key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.TokenPair{}, storage.ErrNotFound
		}
		return models.TokenPair{}, fmt.Errorf("load session: %w", err)
	}
	if len(values) == 0 {
		return models.TokenPair{}, storage.ErrNotFound
	}
	return models.TokenPair{
		AccessToken:  values[fieldAccess],
		RefreshToken: values[fieldRefresh],
	}, nil
}

// Save writes both fields and resets the expiry in one transaction.
func (s *Store) Save(ctx context.Context, sessionID string, tokens models.TokenPair) error {
	k := key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldAccess, tokens.AccessToken, fieldRefresh, tokens.RefreshToken)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session hash.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

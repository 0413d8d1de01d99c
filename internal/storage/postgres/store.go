package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure Store satisfies the storage.TokenBackend interface at compile time.
var _ storage.TokenBackend = (*Store)(nil)

// Store provides Postgres-backed persistence for browser token pairs.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewTokenStore creates a new Store and runs migrations.
func NewTokenStore(ctx context.Context, databaseURL string, ttl time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, ttl: ttl}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Load fetches the unexpired pair for sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (models.TokenPair, error) {
	const query = `
	SELECT access_token, refresh_token
	FROM client_sessions
	WHERE session_id = $1 AND expires_at > NOW();
	`
	var tokens models.TokenPair
	if err := s.pool.QueryRow(ctx, query, sessionID).Scan(&tokens.AccessToken, &tokens.RefreshToken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TokenPair{}, storage.ErrNotFound
		}
		return models.TokenPair{}, fmt.Errorf("load session: %w", err)
	}
	return tokens, nil
}

// Save upserts the pair and extends its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, tokens models.TokenPair) error {
	const query = `
	INSERT INTO client_sessions (session_id, access_token, refresh_token, updated_at, expires_at)
	VALUES ($1, $2, $3, NOW(), $4)
	ON CONFLICT (session_id) DO UPDATE
	SET access_token = EXCLUDED.access_token,
		refresh_token = EXCLUDED.refresh_token,
		updated_at = EXCLUDED.updated_at,
		expires_at = EXCLUDED.expires_at;
	`
	expiresAt := time.Now().Add(s.ttl)
	if _, err := s.pool.Exec(ctx, query, sessionID, tokens.AccessToken, tokens.RefreshToken, expiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_sessions WHERE session_id = $1;`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns how many were deleted.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM client_sessions WHERE expires_at <= NOW();`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

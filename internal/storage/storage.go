package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/gbans-web/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable indicates the backing store cannot be reached.
var ErrUnavailable = errors.New("storage unavailable")

// TokenBackend persists browser credential pairs keyed by an opaque session id.
type TokenBackend interface {
	Load(ctx context.Context, sessionID string) (models.TokenPair, error)
	Save(ctx context.Context, sessionID string, tokens models.TokenPair) error
	Delete(ctx context.Context, sessionID string) error
}

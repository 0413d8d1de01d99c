package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hongminglow/gbans-web/internal/backend"
	"github.com/hongminglow/gbans-web/internal/models"
)

// IdentityResolver is the part of the backend the bootstrap needs.
// Rejected credentials must be reported with backend.ErrUnauthorized.
type IdentityResolver interface {
	CurrentProfile(ctx context.Context, accessToken string) (models.UserProfile, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// ExpiryChecker reports whether a token is already known to be expired.
type ExpiryChecker interface {
	Expired(token string) bool
}

// Outcome classifies how a bootstrap ended.
type Outcome string

const (
	OutcomeAnonymous     Outcome = "anonymous"
	OutcomeAuthenticated Outcome = "authenticated"
	OutcomeRefreshed     Outcome = "refreshed"
	OutcomeDegraded      Outcome = "degraded"
)

// Result is the value a bootstrap produces. Err explains a degraded outcome.
type Result struct {
	Profile models.UserProfile
	Outcome Outcome
	Err     error
}

func guest(outcome Outcome, err error) Result {
	return Result{Profile: models.Guest, Outcome: outcome, Err: err}
}

// rotationGrace is how long a rotated refresh token keeps resolving to its
// replacement for requests still carrying the old cookie.
const rotationGrace = 30 * time.Second

type rotation struct {
	tokens    models.TokenPair
	expiresAt time.Time
}

// Initializer resolves the viewer of a request from its stored credentials.
type Initializer struct {
	resolver IdentityResolver
	expiry   ExpiryChecker
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	refreshes singleflight.Group
	mu        sync.Mutex
	rotated   map[string]rotation
}

// NewInitializer returns an initializer bounded by timeout. expiry may be nil.
func NewInitializer(resolver IdentityResolver, expiry ExpiryChecker, timeout time.Duration, logger *slog.Logger) *Initializer {
	return &Initializer{
		resolver: resolver,
		expiry:   expiry,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		rotated:  make(map[string]rotation),
	}
}

// Init resolves the viewer and commits the profile to sc. Failures of any
// kind produce the guest profile; Init never panics.
func (i *Initializer) Init(ctx context.Context, sc *Context) (res Result) {
	fence := sc.Begin()
	defer func() {
		if p := recover(); p != nil {
			res = guest(OutcomeDegraded, fmt.Errorf("session bootstrap panic: %v", p))
		}
		sc.Commit(fence, res.Profile)
		if res.Err != nil {
			i.logger.DebugContext(ctx, "session bootstrap degraded", "outcome", res.Outcome, "error", res.Err)
		}
	}()

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	return i.resolve(ctx, sc)
}

func (i *Initializer) resolve(ctx context.Context, sc *Context) Result {
	access, refresh := sc.GetToken(), sc.GetRefreshToken()
	if access == "" && refresh == "" {
		return guest(OutcomeAnonymous, nil)
	}

	if access != "" && (i.expiry == nil || !i.expiry.Expired(access)) {
		profile, err := i.resolver.CurrentProfile(ctx, access)
		if err == nil {
			return Result{Profile: profile, Outcome: OutcomeAuthenticated}
		}
		if !errors.Is(err, backend.ErrUnauthorized) {
			return guest(OutcomeDegraded, err)
		}
	}

	if refresh == "" {
		sc.SetToken("")
		return guest(OutcomeDegraded, backend.ErrUnauthorized)
	}

	pair, err := i.refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			sc.ClearTokens()
		}
		return guest(OutcomeDegraded, fmt.Errorf("refresh: %w", err))
	}
	sc.SetToken(pair.AccessToken)
	sc.SetRefreshToken(pair.RefreshToken)

	profile, err := i.resolver.CurrentProfile(ctx, pair.AccessToken)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			sc.ClearTokens()
		}
		return guest(OutcomeDegraded, err)
	}
	return Result{Profile: profile, Outcome: OutcomeRefreshed}
}

// refresh exchanges token once across concurrent callers and remembers the
// replacement for rotationGrace. The shared exchange outlives the caller that
// started it and is bounded by the initializer timeout instead.
func (i *Initializer) refresh(ctx context.Context, token string) (models.TokenPair, error) {
	if pair, ok := i.recentRotation(token); ok {
		return pair, nil
	}
	ch := i.refreshes.DoChan(token, func() (any, error) {
		if pair, ok := i.recentRotation(token); ok {
			return pair, nil
		}
		shared := context.WithoutCancel(ctx)
		if i.timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, i.timeout)
			defer cancel()
		}
		pair, err := i.resolver.Refresh(shared, token)
		if err != nil {
			return models.TokenPair{}, err
		}
		i.remember(token, pair)
		return pair, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return models.TokenPair{}, res.Err
		}
		return res.Val.(models.TokenPair), nil
	case <-ctx.Done():
		return models.TokenPair{}, ctx.Err()
	}
}

func (i *Initializer) recentRotation(token string) (models.TokenPair, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	r, ok := i.rotated[token]
	if !ok {
		return models.TokenPair{}, false
	}
	if !i.now().Before(r.expiresAt) {
		delete(i.rotated, token)
		return models.TokenPair{}, false
	}
	return r.tokens, true
}

func (i *Initializer) remember(token string, pair models.TokenPair) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	for k, r := range i.rotated {
		if !now.Before(r.expiresAt) {
			delete(i.rotated, k)
		}
	}
	i.rotated[token] = rotation{tokens: pair, expiresAt: now.Add(rotationGrace)}
}

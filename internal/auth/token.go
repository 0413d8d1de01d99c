package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector reads claims from backend-issued access tokens without
// verifying their signature. Signatures are checked by the backend.
type TokenInspector struct {
	parser *jwt.Parser
	skew   time.Duration
	now    func() time.Time
}

// NewTokenInspector returns an inspector treating tokens as expired skew before their exp claim.
func NewTokenInspector(skew time.Duration) *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
		skew:   skew,
		now:    time.Now,
	}
}

// Expiry returns the exp claim of token. ok is false for opaque or malformed tokens.
func (t *TokenInspector) Expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := t.parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token is known to be past its expiry.
// Tokens without a readable expiry are never reported expired.
func (t *TokenInspector) Expired(token string) bool {
	exp, ok := t.Expiry(token)
	if !ok {
		return false
	}
	return !t.now().Add(t.skew).Before(exp)
}

package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an established identity: the token pair plus the identity
// metadata carried inside the access token. The metadata fields are available
// immediately after sign-in at zero network cost, which is what the
// reconciler's optimistic step builds on.
type Session struct {
	AccessToken  string
	RefreshToken string

	UserID   string
	Email    string
	Username string

	// EmailConfirmed is false only on a fresh password sign-in whose account
	// has not verified its address. Restored sessions are always confirmed:
	// a persisted token pair implies a previously completed sign-in.
	EmailConfirmed bool

	ExpiresAt time.Time
}

// Expired reports whether the access token is past its expiry claim.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// sessionFromTokens decodes identity metadata from the access token's JWT
// claims. The signature is not verified: the token came straight from the
// auth endpoint (or from local storage where it was put after one did), and
// the service re-verifies it on every request anyway.
func sessionFromTokens(accessToken, refreshToken string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	s := &Session{
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		EmailConfirmed: true,
	}
	if sub, err := claims.GetSubject(); err == nil {
		s.UserID = sub
	}
	if v, ok := claims["email"].(string); ok {
		s.Email = v
	}
	if md, ok := claims["user_metadata"].(map[string]any); ok {
		if v, ok := md["username"].(string); ok {
			s.Username = v
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// storeTokenSource reads the bearer token from the store on every call so that
// login, logout and expiry are visible without rebuilding the HTTP client.
type storeTokenSource struct {
	ctx   context.Context
	store SessionStore
}

func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: s}
}

// Token returns [shared.ErrNoSession] when nobody is logged in.
func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	session, err := ts.store.Read(ts.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		Expiry:      TokenExpiry(session.Token),
	}, nil
}

// TokenExpiry returns the `exp` claim of a JWT without verifying its signature.
// Opaque tokens and tokens without `exp` return the zero time, which [oauth2.Token] treats as never expiring.
func TokenExpiry(raw string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

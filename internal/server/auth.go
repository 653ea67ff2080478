package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// Claims identifies the user a token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a [TokenIssuer]. A non-positive ttl defaults to seven days.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token whose subject is the user id.
func (i *TokenIssuer) Issue(userID, username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: username,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the user id.
func (i *TokenIssuer) Verify(raw string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}

	return claims.Subject, nil
}

type subjectKey struct{}

func withSubject(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, userID)
}

// SubjectFrom returns the authenticated user id stored by [RequireAuth].
func SubjectFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subjectKey{}).(string)
	return id, ok && id != ""
}

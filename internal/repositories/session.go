package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/oauth2"
)

// SessionStore persists the single active [models.Session].
type SessionStore interface {
	// Read returns the stored session or [shared.ErrNoSession].
	Read(ctx context.Context) (models.Session, error)
	// Write replaces the whole session.
	Write(ctx context.Context, session models.Session) error
	// Clear removes both the token and the user.
	Clear(ctx context.Context) error
	// TokenSource exposes the stored token to HTTP clients.
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// Store implements [SessionStore] on top of a [KeyValue] backend.
type Store struct {
	kv     KeyValue
	logger *log.Logger
}

// NewStore creates a [Store]. A nil logger discards log output.
func NewStore(kv KeyValue, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &Store{kv: kv, logger: logger}
}

// NewMemoryStore creates a [Store] backed by a fresh [MemoryKV].
func NewMemoryStore() *Store {
	return NewStore(NewMemoryKV(), nil)
}

func (s *Store) Read(ctx context.Context) (models.Session, error) {
	values, err := s.kv.Get(ctx, TokenKey, UserKey)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	token, hasToken := values[TokenKey]
	blob, hasUser := values[UserKey]

	if !hasToken && !hasUser {
		return models.Session{}, shared.ErrNoSession
	}

	var user models.User
	if hasToken && hasUser {
		if err := json.Unmarshal([]byte(blob), &user); err != nil {
			s.logger.Warn("discarding unreadable session user", "error", err)
		}
	}

	session := models.Session{Token: token, User: user}
	if !session.Valid() {
		s.logger.Warn("discarding partial session", "has_token", hasToken, "has_user", hasUser)
		if err := s.Clear(ctx); err != nil {
			return models.Session{}, err
		}
		return models.Session{}, shared.ErrNoSession
	}

	return session, nil
}

func (s *Store) Write(ctx context.Context, session models.Session) error {
	if !session.Valid() {
		return fmt.Errorf("%w: session needs both token and username", shared.ErrInvalidInput)
	}

	blob, err := json.Marshal(session.User.Sanitized())
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}

	if err := s.kv.Set(ctx, map[string]string{TokenKey: session.Token, UserKey: string(blob)}); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	s.logger.Debug("session written", "username", session.User.Username)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// IsNoSession reports whether err means nobody is logged in.
func IsNoSession(err error) bool {
	return errors.Is(err, shared.ErrNoSession)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

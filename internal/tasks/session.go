package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// invalidate clears the session when err is Unauthorized and marks it with [shared.ErrNotAuthenticated].
// Other errors pass through unchanged.
func invalidate(ctx context.Context, store repositories.SessionStore, logger *log.Logger, err error) error {
	if err == nil || !services.IsUnauthorized(err) {
		return err
	}

	logger.Warn("clearing session after unauthorized response", "error", err)
	if clearErr := store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
		logger.Error("failed to clear session", "error", clearErr)
	}
	return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
}

// IsSessionEnded reports whether err means the session is gone and the user must log in again.
func IsSessionEnded(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrNoSession)
}

func isBusy(err error) bool {
	return errors.Is(err, shared.ErrToggleInProgress) ||
		errors.Is(err, shared.ErrUpdateInProgress) ||
		errors.Is(err, shared.ErrLoadInProgress)
}

// Authenticator handles registration, login and logout.
type Authenticator struct {
	api    services.MovieService
	store  repositories.SessionStore
	logger *log.Logger
}

// NewAuthenticator creates an [Authenticator].
func NewAuthenticator(api services.MovieService, store repositories.SessionStore, logger *log.Logger) *Authenticator {
	return &Authenticator{api: api, store: store, logger: discardLogger(logger)}
}

// Register creates the account. It never writes a session: registering does not log in.
func (a *Authenticator) Register(ctx context.Context, req services.RegisterRequest) (*models.User, error) {
	user, err := a.api.Register(ctx, req)
	if err != nil {
		a.logger.Info("registration failed", "username", req.Username, "error", err)
		return nil, err
	}
	a.logger.Info("registered", "username", user.Username)
	return user, nil
}

// Login writes Session{token, user} only after the server accepted the credentials.
func (a *Authenticator) Login(ctx context.Context, creds services.Credentials) (models.Session, error) {
	resp, err := a.api.Login(ctx, creds)
	if err != nil {
		a.logger.Info("login failed", "username", creds.Username, "error", err)
		return models.Session{}, err
	}

	session := models.Session{Token: resp.Token, User: resp.User.Sanitized()}
	if err := a.store.Write(ctx, session); err != nil {
		return models.Session{}, err
	}

	a.logger.Info("logged in", "username", session.User.Username)
	return session, nil
}

// Logout clears the stored session.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Current returns the stored session or [shared.ErrNoSession].
func (a *Authenticator) Current(ctx context.Context) (models.Session, error) {
	return a.store.Read(ctx)
}

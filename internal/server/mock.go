package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MockAPIOpts configures a [MockAPI].
type MockAPIOpts struct {
	Secret   []byte
	TokenTTL time.Duration
	// Movies replaces the seeded catalog when non-nil.
	Movies []models.Movie
	// BcryptCost defaults to [bcrypt.DefaultCost]; tests use [bcrypt.MinCost].
	BcryptCost int
	Logger     *log.Logger
}

// MockAPI is an in-memory implementation of the movie REST API.
type MockAPI struct {
	store   *memoryStore
	issuer  *TokenIssuer
	router  *BasicRouter
	handler *MovieHandler
	logger  *log.Logger
}

// NewMockAPI builds the router, middleware and handlers.
func NewMockAPI(opts MockAPIOpts) (*MockAPI, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("mock API needs a signing secret")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	movies := opts.Movies
	if movies == nil {
		movies = SeedMovies()
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	store := newMemoryStore(movies, cost)
	issuer := NewTokenIssuer(opts.Secret, opts.TokenTTL)
	handler := newMovieHandler(store, issuer, logger)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger), RequireAuth(issuer, "POST /users", "POST /login"))
	router.Handler(handler)

	return &MockAPI{store: store, issuer: issuer, router: router, handler: handler, logger: logger}, nil
}

// Handler returns the root [http.Handler].
func (m *MockAPI) Handler() http.Handler { return m.router }

// User returns the server-side copy of username.
func (m *MockAPI) User(username string) (models.User, bool) {
	u, err := m.store.userByName(username)
	return u, err == nil
}

// IssueToken signs a token for username, for tests that need a session without logging in.
func (m *MockAPI) IssueToken(username string) (string, error) {
	u, err := m.store.userByName(username)
	if err != nil {
		return "", err
	}
	return m.issuer.Issue(u.ID, u.Username)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (m *MockAPI) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return m.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (m *MockAPI) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: m.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("mock movie API listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		m.logger.Info("mock movie API stopped")
		return nil
	}
}

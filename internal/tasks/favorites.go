package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

// ToggleResult reports the favorite state of a movie after a successful toggle.
type ToggleResult struct {
	MovieID  string
	Favorite bool
}

// Op returns the operation the toggle performed.
func (r ToggleResult) Op() Operation {
	if r.Favorite {
		return OpAddFavorite
	}
	return OpRemoveFavorite
}

// Synchronizer keeps the in-memory favorite set, the stored session user and the server in agreement.
type Synchronizer struct {
	mu sync.Mutex
	// storeMu serializes writes of the stored user between toggles and [Synchronizer.Adopt].
	storeMu sync.Mutex
	api     services.MovieService
	store  repositories.SessionStore
	logger *log.Logger

	username  string
	favorites models.FavoriteSet
	inFlight  map[string]bool
	gen       uint64
}

// NewSynchronizer creates an empty [Synchronizer]. Call [Synchronizer.Init] or [Synchronizer.Seed] before toggling.
func NewSynchronizer(api services.MovieService, store repositories.SessionStore, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		api:       api,
		store:     store,
		logger:    discardLogger(logger),
		favorites: models.FavoriteSet{},
		inFlight:  make(map[string]bool),
	}
}

// Init seeds the synchronizer from the stored session.
func (s *Synchronizer) Init(ctx context.Context) error {
	session, err := s.store.Read(ctx)
	if err != nil {
		return err
	}
	s.Seed(session.User.Username, session.User.FavoriteMovies)
	return nil
}

// Seed replaces the owner and favorite set.
func (s *Synchronizer) Seed(username string, favorites models.FavoriteSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.favorites = models.NewFavoriteSet(favorites...)
}

// Reset forgets the owner and favorites. In-flight toggles still finish but their results only reach the store.
func (s *Synchronizer) Reset() {
	s.Seed("", nil)
}

// Generation counts the toggles the server accepted. Read it before fetching
// a user that will be passed to [Synchronizer.Adopt].
func (s *Synchronizer) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Adopt stores a server copy of user as the session user and seeds the favorites from it.
//
// since is the [Synchronizer.Generation] read before user was fetched. When a toggle was
// accepted or is still pending since then, the snapshot may predate it, so the in-memory
// favorites are kept and stored instead.
func (s *Synchronizer) Adopt(ctx context.Context, user models.User, since uint64) (models.User, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	session, err := s.store.Read(ctx)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username != "" && (s.gen != since || len(s.inFlight) > 0) {
		s.logger.Debug("keeping local favorites over older server copy", "username", user.Username)
		user.FavoriteMovies = models.NewFavoriteSet(s.favorites...)
	}

	session.User = user.Sanitized()
	if err := s.store.Write(ctx, session); err != nil {
		return models.User{}, err
	}

	s.username = user.Username
	s.favorites = models.NewFavoriteSet(user.FavoriteMovies...)
	return session.User, nil
}

// Favorites returns a copy of the in-memory set.
func (s *Synchronizer) Favorites() models.FavoriteSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NewFavoriteSet(s.favorites...)
}

func (s *Synchronizer) IsFavorite(movieID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.Has(movieID)
}

// Pending reports whether a toggle for movieID is in flight.
func (s *Synchronizer) Pending(movieID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[movieID]
}

// Toggle adds movieID to the favorites if absent, else removes it.
//
// On failure no copy changes. A second toggle for the same id while the first is pending
// returns [shared.ErrToggleInProgress] without calling the API.
func (s *Synchronizer) Toggle(ctx context.Context, movieID string) (ToggleResult, error) {
	if movieID == "" {
		return ToggleResult{}, fmt.Errorf("%w: movie id is required", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	if s.username == "" {
		s.mu.Unlock()
		return ToggleResult{}, shared.ErrNoSession
	}
	if s.inFlight[movieID] {
		s.mu.Unlock()
		return ToggleResult{}, shared.ErrToggleInProgress
	}
	s.inFlight[movieID] = true
	username := s.username
	wasFavorite := s.favorites.Has(movieID)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, movieID)
		s.mu.Unlock()
	}()

	var err error
	if wasFavorite {
		err = s.api.RemoveFavorite(ctx, username, movieID)
	} else {
		err = s.api.AddFavorite(ctx, username, movieID)
	}
	if err != nil {
		s.logger.Info("favorite toggle failed", "movie_id", movieID, "error", err)
		return ToggleResult{}, invalidate(ctx, s.store, s.logger, err)
	}

	result := ToggleResult{MovieID: movieID, Favorite: !wasFavorite}

	s.mu.Lock()
	s.gen++
	if s.username == username {
		s.favorites = apply(s.favorites, result)
	}
	s.mu.Unlock()

	// the server already changed, so the local copy must follow even if the view was disposed
	if err := s.persist(context.WithoutCancel(ctx), username, result); err != nil {
		return result, err
	}

	s.logger.Debug("favorite toggled", "movie_id", movieID, "favorite", result.Favorite)
	return result, nil
}

// persist read-modify-writes the stored user's FavoriteMovies, leaving every other field untouched.
func (s *Synchronizer) persist(ctx context.Context, username string, result ToggleResult) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	session, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("favorite saved on server but not locally: %w", err)
	}
	if session.User.Username != username {
		return fmt.Errorf("favorite saved on server but session now belongs to %s: %w", session.User.Username, shared.ErrNotAuthenticated)
	}

	session.User.FavoriteMovies = apply(session.User.FavoriteMovies, result)
	if err := s.store.Write(ctx, session); err != nil {
		return fmt.Errorf("favorite saved on server but not locally: %w", err)
	}
	return nil
}

func apply(set models.FavoriteSet, r ToggleResult) models.FavoriteSet {
	if r.Favorite {
		return set.With(r.MovieID)
	}
	return set.Without(r.MovieID)
}

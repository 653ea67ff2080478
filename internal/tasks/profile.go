package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

// ProfileView is what the profile screen renders.
type ProfileView struct {
	User      models.User
	Favorites []models.Movie // catalog movies in the favorite set
}

// Profile loads, updates and deletes the logged-in user's account.
// Favorite changes go through the shared [Synchronizer].
type Profile struct {
	mu        sync.Mutex
	api       services.MovieService
	store     repositories.SessionStore
	catalog   *Catalog
	favorites *Synchronizer
	logger    *log.Logger

	user     models.User
	loaded   bool
	updating bool
	deleted  bool
}

// NewProfile creates a [Profile] sharing catalog and favorites with other views.
func NewProfile(api services.MovieService, store repositories.SessionStore, catalog *Catalog, favorites *Synchronizer, logger *log.Logger) *Profile {
	return &Profile{
		api:       api,
		store:     store,
		catalog:   catalog,
		favorites: favorites,
		logger:    discardLogger(logger),
	}
}

// Activate fetches the session user, then the catalog, then seeds the favorite set from the server copy.
func (p *Profile) Activate(ctx context.Context) (ProfileView, error) {
	session, err := p.store.Read(ctx)
	if err != nil {
		return ProfileView{}, err
	}

	since := p.favorites.Generation()
	user, err := p.api.GetUser(ctx, session.User.Username)
	if err != nil {
		return ProfileView{}, invalidate(ctx, p.store, p.logger, err)
	}

	// another view may be loading the shared catalog; its result fills the favorites later
	if _, err := p.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrLoadInProgress) {
		return ProfileView{}, err
	}

	adopted, err := p.favorites.Adopt(ctx, *user, since)
	if err != nil {
		return ProfileView{}, err
	}

	p.mu.Lock()
	p.user = adopted
	p.loaded = true
	p.deleted = false
	p.mu.Unlock()

	return p.View(), nil
}

// View returns the current user and the displayed favorites.
// Favorite ids missing from the catalog stay stored but are not displayed.
func (p *Profile) View() ProfileView {
	p.mu.Lock()
	user := p.user
	p.mu.Unlock()

	favorites := p.favorites.Favorites()
	user.FavoriteMovies = favorites
	return ProfileView{User: user, Favorites: p.catalog.InSet(favorites)}
}

// Loaded reports whether Activate succeeded and the account still exists.
func (p *Profile) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded && !p.deleted
}

// Deleted reports whether the account was deleted; the UI returns to the landing screen.
func (p *Profile) Deleted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deleted
}

// Updating reports whether an update is in flight.
func (p *Profile) Updating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updating
}

// Update sends the editable field set; an empty Password is omitted so the server keeps the current one.
// On success the stored user becomes the server response, except for favorites toggled while the request was in flight.
func (p *Profile) Update(ctx context.Context, req services.UpdateUserRequest) (models.User, error) {
	p.mu.Lock()
	if !p.loaded || p.deleted {
		p.mu.Unlock()
		return models.User{}, shared.ErrNotLoaded
	}
	if p.updating {
		p.mu.Unlock()
		return models.User{}, shared.ErrUpdateInProgress
	}
	p.updating = true
	username := p.user.Username
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.updating = false
		p.mu.Unlock()
	}()

	if err := req.Validate(); err != nil {
		return models.User{}, err
	}

	since := p.favorites.Generation()
	updated, err := p.api.UpdateUser(ctx, username, req)
	if err != nil {
		return models.User{}, invalidate(ctx, p.store, p.logger, err)
	}

	adopted, err := p.favorites.Adopt(context.WithoutCancel(ctx), *updated, since)
	if err != nil {
		return models.User{}, err
	}

	p.mu.Lock()
	p.user = adopted
	p.mu.Unlock()

	p.logger.Info("profile updated", "username", adopted.Username)
	return adopted, nil
}

// Delete removes the account, then clears the session, then marks the view deleted.
// On failure nothing is cleared.
func (p *Profile) Delete(ctx context.Context) error {
	p.mu.Lock()
	if !p.loaded || p.deleted {
		p.mu.Unlock()
		return shared.ErrNotLoaded
	}
	username := p.user.Username
	p.mu.Unlock()

	if err := p.api.DeleteUser(ctx, username); err != nil {
		return invalidate(ctx, p.store, p.logger, err)
	}

	if err := p.store.Clear(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	p.favorites.Reset()
	p.catalog.Reset()

	p.mu.Lock()
	p.user = models.User{}
	p.deleted = true
	p.mu.Unlock()

	p.logger.Info("profile deleted", "username", username)
	return nil
}

// Toggle delegates to the shared [Synchronizer].
func (p *Profile) Toggle(ctx context.Context, movieID string) (ToggleResult, error) {
	return p.favorites.Toggle(ctx, movieID)
}

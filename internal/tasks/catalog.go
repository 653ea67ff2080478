package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

// CatalogState is the load state of a [Catalog].
type CatalogState int

const (
	CatalogIdle CatalogState = iota
	CatalogLoading
	CatalogLoaded
	CatalogFailed
)

func (s CatalogState) String() string {
	switch s {
	case CatalogIdle:
		return "idle"
	case CatalogLoading:
		return "loading"
	case CatalogLoaded:
		return "loaded"
	case CatalogFailed:
		return "failed"
	default:
		return ""
	}
}

// MovieView is a catalog row with its derived favorite flag.
type MovieView struct {
	models.Movie
	Favorite bool
}

// Catalog caches the full movie list for the lifetime of a view.
//
// Idle -> Loading -> Loaded | Failed; Failed -> Loading on [Catalog.Retry].
type Catalog struct {
	mu     sync.Mutex
	api    services.MovieService
	store  repositories.SessionStore
	logger *log.Logger

	state  CatalogState
	movies []models.Movie
	err    error
	// gen advances on Reset; loads started under an older gen never touch the cache.
	gen uint64
}

// NewCatalog creates an idle [Catalog].
func NewCatalog(api services.MovieService, store repositories.SessionStore, logger *log.Logger) *Catalog {
	return &Catalog{api: api, store: store, logger: discardLogger(logger)}
}

// Load fetches the catalog once. Loading again after success returns the cached list;
// loading while a load is pending returns [shared.ErrLoadInProgress].
func (c *Catalog) Load(ctx context.Context) ([]models.Movie, error) {
	c.mu.Lock()
	switch c.state {
	case CatalogLoading:
		c.mu.Unlock()
		return nil, shared.ErrLoadInProgress
	case CatalogLoaded:
		movies := c.copyMovies()
		c.mu.Unlock()
		return movies, nil
	}
	c.state = CatalogLoading
	c.err = nil
	gen := c.gen
	c.mu.Unlock()

	movies, err := c.api.ListMovies(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		c.logger.Debug("discarding catalog load from before reset", "error", err)
		if err != nil {
			return nil, err
		}
		return append([]models.Movie{}, movies...), nil
	}

	if err != nil {
		c.state = CatalogFailed
		c.movies = nil
		c.err = invalidate(ctx, c.store, c.logger, err)
		c.logger.Warn("catalog load failed", "error", err)
		return nil, c.err
	}

	c.state = CatalogLoaded
	c.movies = movies
	c.logger.Debug("catalog loaded", "count", len(movies))
	return c.copyMovies(), nil
}

// Retry reloads after a failure. In any other state it behaves like [Catalog.Load].
func (c *Catalog) Retry(ctx context.Context) ([]models.Movie, error) {
	c.mu.Lock()
	if c.state == CatalogFailed {
		c.state = CatalogIdle
	}
	c.mu.Unlock()
	return c.Load(ctx)
}

// Reset drops the cache, returning to Idle. Used when the owning view goes away.
// A load still in flight finishes for its caller only.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = CatalogIdle
	c.movies = nil
	c.err = nil
}

func (c *Catalog) State() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed load.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Movies returns the cached list, empty unless Loaded.
func (c *Catalog) Movies() []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMovies()
}

// Movie looks up a cached movie by id.
func (c *Catalog) Movie(id string) (models.Movie, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.movies {
		if m.ID == id {
			return m, true
		}
	}
	return models.Movie{}, false
}

// Views pairs every cached movie with its favorite flag from favorites.
func (c *Catalog) Views(favorites models.FavoriteSet) []MovieView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]MovieView, len(c.movies))
	for i, m := range c.movies {
		views[i] = MovieView{Movie: m, Favorite: favorites.Has(m.ID)}
	}
	return views
}

// InSet returns the cached movies whose ids are in favorites, in catalog order.
// Ids missing from the catalog are skipped.
func (c *Catalog) InSet(favorites models.FavoriteSet) []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []models.Movie{}
	for _, m := range c.movies {
		if favorites.Has(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// ByGenre filters the cached list by genre name, ignoring case.
func (c *Catalog) ByGenre(genre string) []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []models.Movie{}
	for _, m := range c.movies {
		if strings.EqualFold(m.Genre.Name, strings.TrimSpace(genre)) {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) copyMovies() []models.Movie {
	return append([]models.Movie{}, c.movies...)
}

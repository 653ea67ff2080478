// package services defines interface MovieService for interacting with the movie REST API
package services

import (
	"context"

	"github.com/desertthunder/flix/internal/models"
)

// MovieService is the set of remote calls the client makes. [MovieAPI] implements it over HTTP.
//
// Every method fails with an [*APIError]; see [KindOf].
type MovieService interface {
	// Register creates an account. It does not log in.
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)

	// Login exchanges credentials for a bearer token and the user document.
	Login(ctx context.Context, creds Credentials) (*LoginResponse, error)

	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, title string) (*models.Movie, error)
	MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)

	// UpdateUser sends the full editable field set and returns the stored document.
	UpdateUser(ctx context.Context, username string, req UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error

	AddFavorite(ctx context.Context, username, movieID string) error
	RemoveFavorite(ctx context.Context, username, movieID string) error
}

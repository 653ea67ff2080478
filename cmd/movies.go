package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MoviesList loads the catalog and prints it, starring the session user's favourites.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	catalog := tasks.NewCatalog(api, store, r.logger)
	movies, err := catalog.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", tasks.NewNotice(tasks.OpLoadCatalog, err).Message, err)
	}

	title := "Movies"
	if genre := strings.TrimSpace(cmd.String("genre")); genre != "" {
		movies = catalog.ByGenre(genre)
		title = genre + " Movies"
	}

	r.logger.Debug("catalog loaded", "movies", len(movies))
	return r.renderMovies(cmd, format, title, movies, r.storedFavorites(ctx, store))
}

// MoviesGet prints one movie by title.
func (r *Runner) MoviesGet(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return fmt.Errorf("%w: movie title is required", shared.ErrMissingArgument)
	}

	api, _, err := r.client(ctx)
	if err != nil {
		return err
	}

	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	movie, err := api.GetMovie(ctx, title)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(movie, cmd.Bool("pretty"))
	case formatter.FormatText:
		return r.writeBytes(formatter.MovieToText(*movie))
	default:
		return r.renderMovies(cmd, format, movie.Title, []models.Movie{*movie}, nil)
	}
}

// MoviesGenre prints the movies the server returns for a genre.
func (r *Runner) MoviesGenre(ctx context.Context, cmd *cli.Command) error {
	genre := strings.TrimSpace(cmd.StringArg("name"))
	if genre == "" {
		return fmt.Errorf("%w: genre name is required", shared.ErrMissingArgument)
	}

	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	movies, err := api.MoviesByGenre(ctx, genre)
	if err != nil {
		return err
	}
	return r.renderMovies(cmd, format, genre+" Movies", movies, r.storedFavorites(ctx, store))
}

// UsersList prints every account the API returns.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	api, _, err := r.client(ctx)
	if err != nil {
		return err
	}

	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	users, err := api.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(users, cmd.Bool("pretty"))
	case formatter.FormatCSV:
		data, err := formatter.UsersToCSV(users)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case formatter.FormatMarkdown:
		return fmt.Errorf("%w: users cannot be rendered as %s", shared.ErrInvalidArgument, format)
	default:
		return r.writeBytes(formatter.UsersToText(users))
	}
}

func (r *Runner) renderMovies(cmd *cli.Command, format formatter.Format, title string, movies []models.Movie, favorites models.FavoriteSet) error {
	var data []byte
	var err error

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(movies, cmd.Bool("pretty"))
	case formatter.FormatCSV:
		data, err = formatter.MoviesToCSV(movies, favorites)
	case formatter.FormatMarkdown:
		data, err = formatter.MoviesToMarkdown(title, movies, favorites)
	default:
		data, err = formatter.MoviesToText(movies, favorites)
	}

	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// storedFavorites returns the session user's favourites, or an empty set when logged out.
func (r *Runner) storedFavorites(ctx context.Context, store repositories.SessionStore) models.FavoriteSet {
	session, err := store.Read(ctx)
	if err != nil {
		return models.FavoriteSet{}
	}
	return session.User.FavoriteMovies
}

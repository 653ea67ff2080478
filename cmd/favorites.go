package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// FavoritesList prints the catalog movies in the user's favourite set.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	acct, err := r.activateProfile(ctx)
	if err != nil {
		return err
	}
	view := acct.view

	if err := r.renderMovies(cmd, format, "Favourite Movies", view.Favorites, view.User.FavoriteMovies); err != nil {
		return err
	}

	if hidden := view.User.FavoriteMovies.Len() - len(view.Favorites); hidden > 0 && format == formatter.FormatText {
		return r.writePlain("\n%d favourite(s) no longer in the catalog\n", hidden)
	}
	return nil
}

// FavoritesToggle adds the movie to the favourites, or removes it when already present.
//
// The argument is a movie id or a title; titles are matched against the catalog ignoring case.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	arg := strings.TrimSpace(cmd.StringArg("movie"))
	if arg == "" {
		return fmt.Errorf("%w: movie id or title is required", shared.ErrMissingArgument)
	}

	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	favorites := tasks.NewSynchronizer(api, store, r.logger)
	if err := favorites.Init(ctx); err != nil {
		return fmt.Errorf("%w: run 'flix login' first", err)
	}

	catalog := tasks.NewCatalog(api, store, r.logger)
	movies, err := catalog.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", tasks.NewNotice(tasks.OpLoadCatalog, err).Message, err)
	}

	movie, ok := findMovie(movies, arg)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrMovieNotFound, arg)
	}

	op := tasks.OpAddFavorite
	if favorites.IsFavorite(movie.ID) {
		op = tasks.OpRemoveFavorite
	}

	result, err := favorites.Toggle(ctx, movie.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", tasks.NewNotice(op, err).Message, err)
	}

	notice := tasks.NewNotice(result.Op(), nil)
	return r.writePlain("✓ %s (%s)\n", notice.Message, movie.Title)
}

func findMovie(movies []models.Movie, arg string) (models.Movie, bool) {
	for _, m := range movies {
		if m.ID == arg {
			return m, true
		}
	}
	for _, m := range movies {
		if strings.EqualFold(m.Title, arg) {
			return m, true
		}
	}
	return models.Movie{}, false
}

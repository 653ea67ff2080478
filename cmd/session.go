package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Register creates an account. The user still has to log in afterwards.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	req := services.RegisterRequest{
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Birthday: cmd.String("birthday"),
	}
	if req.Password, err = r.secret(cmd.String("password"), "Password: "); err != nil {
		return err
	}

	user, err := tasks.NewAuthenticator(api, store, r.logger).Register(ctx, req)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s\n", tasks.NewNotice(tasks.OpRegister, nil).Message)
	return r.writePlain("Run 'flix login -u %s' to sign in.\n", user.Username)
}

// Login exchanges credentials for a token and stores the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	password, err := r.secret(cmd.String("password"), "Password: ")
	if err != nil {
		return err
	}

	creds := services.Credentials{Username: cmd.String("username"), Password: password}
	session, err := tasks.NewAuthenticator(api, store, r.logger).Login(ctx, creds)
	if err != nil {
		return err
	}

	return r.writePlain("✓ %s (%s)\n", tasks.MsgLoggedIn, session.User.Username)
}

// Logout clears the stored session. Logging out twice is not an error.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.session()
	if err != nil {
		return err
	}

	if err := store.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", tasks.MsgLoggedOut)
}

type whoami struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Birthday       string    `json:"birthday,omitempty"`
	FavoriteMovies []string  `json:"favorite_movies"`
	TokenExpiry    time.Time `json:"token_expiry,omitzero"`
}

// Whoami prints the stored session user without calling the API.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	store, err := r.session()
	if err != nil {
		return err
	}

	session, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: run 'flix login' first", err)
	}

	info := whoami{
		Username:       session.User.Username,
		Email:          session.User.Email,
		Birthday:       session.User.Birthday.String(),
		FavoriteMovies: session.User.FavoriteMovies.IDs(),
		TokenExpiry:    repositories.TokenExpiry(session.Token),
	}

	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}
	if format == formatter.FormatJSON {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlain("Username: %s\n", info.Username)
	r.writePlain("Email: %s\n", info.Email)
	if info.Birthday != "" {
		r.writePlain("Birthday: %s\n", info.Birthday)
	}
	r.writePlain("Favorites: %d\n", len(info.FavoriteMovies))

	if info.TokenExpiry.IsZero() {
		return r.writePlain("Token expiry: unknown\n")
	}
	if time.Now().After(info.TokenExpiry) {
		return r.writePlain("Token expired: %s\n", info.TokenExpiry.Format(time.RFC1123))
	}
	return r.writePlain("Token expires: %s\n", info.TokenExpiry.Format(time.RFC1123))
}

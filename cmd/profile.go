package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// account bundles the view-models a profile command needs, sharing one catalog and favorite set.
type account struct {
	catalog   *tasks.Catalog
	favorites *tasks.Synchronizer
	profile   *tasks.Profile
	view      tasks.ProfileView
}

// activateProfile fetches the session user and the catalog.
func (r *Runner) activateProfile(ctx context.Context) (*account, error) {
	api, store, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	acct := &account{
		catalog:   tasks.NewCatalog(api, store, r.logger),
		favorites: tasks.NewSynchronizer(api, store, r.logger),
	}
	acct.profile = tasks.NewProfile(api, store, acct.catalog, acct.favorites, r.logger)

	if acct.view, err = acct.profile.Activate(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", tasks.NewNotice(tasks.OpLoadProfile, err).Message, err)
	}
	return acct, nil
}

// ProfileShow prints the account and the catalog movies in its favourite set.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	format, err := r.outputFormat(cmd)
	if err != nil {
		return err
	}

	acct, err := r.activateProfile(ctx)
	if err != nil {
		return err
	}
	view := acct.view

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(formatter.ProfileExport{User: view.User, Favorites: view.Favorites}, cmd.Bool("pretty"))
	case formatter.FormatMarkdown:
		return r.writeBytes(formatter.ProfileToMarkdown(view.User, view.Favorites, nil))
	case formatter.FormatCSV:
		return r.renderMovies(cmd, format, "", view.Favorites, view.User.FavoriteMovies)
	default:
		return r.writeBytes(formatter.ProfileToText(view.User, view.Favorites))
	}
}

// ProfileUpdate sends the full editable field set, starting from the current values.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	acct, err := r.activateProfile(ctx)
	if err != nil {
		return err
	}

	req := services.UpdateFromUser(acct.view.User)
	if cmd.IsSet("username") {
		req.Username = cmd.String("username")
	}
	if cmd.IsSet("email") {
		req.Email = cmd.String("email")
	}
	if cmd.IsSet("birthday") {
		req.Birthday = cmd.String("birthday")
	}

	switch {
	case cmd.String("password") != "":
		req.Password = cmd.String("password")
	case cmd.Bool("change-password"):
		if req.Password, err = r.password("New password: "); err != nil {
			return err
		}
	}

	user, err := acct.profile.Update(ctx, req)
	if err != nil {
		return err
	}

	if err := r.writePlain("✓ %s\n", tasks.MsgProfileUpdated); err != nil {
		return err
	}
	return r.writeBytes(formatter.ProfileToText(user, acct.catalog.InSet(user.FavoriteMovies)))
}

// ProfileDelete deletes the account after confirmation, then clears the session.
func (r *Runner) ProfileDelete(ctx context.Context, cmd *cli.Command) error {
	acct, err := r.activateProfile(ctx)
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(fmt.Sprintf("Delete the account %q? This cannot be undone.", acct.view.User.Username))
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("Cancelled\n")
		}
	}

	if err := acct.profile.Delete(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", tasks.MsgProfileDeleted)
}

// ProfileExport writes README.md, profile.json and optionally poster images to a directory.
func (r *Runner) ProfileExport(ctx context.Context, cmd *cli.Command) error {
	acct, err := r.activateProfile(ctx)
	if err != nil {
		return err
	}

	export := formatter.ProfileExport{User: acct.view.User, Favorites: acct.view.Favorites}
	result, err := formatter.WriteProfileExport(ctx, export, cmd.String("output"), cmd.Bool("posters"), r.httpClient)
	if err != nil {
		return fmt.Errorf("failed to export profile: %w", err)
	}

	for _, w := range result.Warnings {
		r.logger.Warn("poster skipped", "error", w)
	}

	r.writePlain("✓ Exported %s to %s\n", export.User.Username, result.Directory)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

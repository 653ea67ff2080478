// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the session database",
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account (does not log in)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account username",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email address",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "birthday",
				Aliases: []string{"b"},
				Usage:   "Birthday as YYYY-MM-DD",
			},
		},
		Action: r.Register,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session locally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account username",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored session",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the logged-in user and token expiry",
		Flags:  outputFlags(),
		Action: r.Whoami,
	}
}

func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "movies",
		Usage: "Browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every movie; favourites are starred",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:    "genre",
						Aliases: []string{"g"},
						Usage:   "Only show movies of this genre",
					},
				),
				Action: r.MoviesList,
			},
			{
				Name:      "get",
				Usage:     "Show a movie by title",
				ArgsUsage: "<title>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags:  outputFlags(),
				Action: r.MoviesGet,
			},
			{
				Name:      "genre",
				Usage:     "List movies of a genre, as filtered by the server",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  outputFlags(),
				Action: r.MoviesGenre,
			},
		},
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Browse accounts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every account",
				Flags:  outputFlags(),
				Action: r.UsersList,
			},
		},
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage the logged-in account",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the account and its favourite movies",
				Flags:  outputFlags(),
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Change username, email, birthday or password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "New username",
					},
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "New email address",
					},
					&cli.StringFlag{
						Name:    "birthday",
						Aliases: []string{"b"},
						Usage:   "New birthday as YYYY-MM-DD",
					},
					&cli.BoolFlag{
						Name:  "change-password",
						Usage: "Prompt for a new password",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "New password; the current one is kept when omitted",
					},
				},
				Action: r.ProfileUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete the account and log out",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.ProfileDelete,
			},
			{
				Name:  "export",
				Usage: "Write the profile and favourites to a directory as Markdown and JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to the username)",
					},
					&cli.BoolFlag{
						Name:  "posters",
						Usage: "Download poster images of favourite movies",
					},
				},
				Action: r.ProfileExport,
			},
		},
	}
}

func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"favs"},
		Usage:   "Manage favourite movies",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favourite movies",
				Flags:  outputFlags(),
				Action: r.FavoritesList,
			},
			{
				Name:      "toggle",
				Usage:     "Add a movie to favourites, or remove it if already present",
				ArgsUsage: "<movie id or title>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "movie"},
				},
				Action: r.FavoritesToggle,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}

func mockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock",
		Usage: "Serve an in-memory movie API for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.StringFlag{
				Name:  "secret",
				Usage: "JWT signing secret (defaults to server.jwt_secret)",
			},
			&cli.DurationFlag{
				Name:  "token-ttl",
				Usage: "Lifetime of issued tokens (defaults to seven days)",
			},
		},
		Action: r.Mock,
	}
}

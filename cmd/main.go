package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "flix",
		Usage:   "Browse a movie catalog and keep a list of favourites",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error(tasks.MsgSessionExpired)
			os.Exit(1)
		case errors.Is(err, shared.ErrNoSession):
			logger.Error("not logged in; run 'flix login' first")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

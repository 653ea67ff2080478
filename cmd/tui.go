package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.cfg().Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	api, store, err := r.client(ctx)
	if err != nil {
		return err
	}

	if err := ui.Run(ctx, ui.Deps{API: api, Store: store, Logger: fileLogger}); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml when missing, then initializes the session database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	r.ensureConfig()
	return r.SetupDatabase(ctx, cmd)
}

// SetupConfig writes config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, max(config.Database.MaxOpenConns, 1), max(config.Database.MaxIdleConns, 1))

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Session database ready at %s\n", config.Database.Path)
}

// SetupRollback reverts the latest applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}

func (r *Runner) configFile() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// ensureConfig creates the config file from the template when it is missing.
// The template holds the same values Before already loaded, so the runner config stays as is.
func (r *Runner) ensureConfig() {
	path := r.configFile()
	if _, err := os.Stat(path); err == nil {
		return
	}

	r.logger.Info("config file not found, creating from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warn("failed to create config file, using defaults", "error", err)
		return
	}
	r.logger.Info("config file created", "path", path)
}

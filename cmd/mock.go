package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/server"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Mock serves the in-memory movie API until interrupted.
func (r *Runner) Mock(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	secret := cmd.String("secret")
	if secret == "" {
		secret = config.Server.JWTSecret
	}
	if secret == "" {
		secret = shared.GenerateID()
		r.logger.Warn("no JWT secret configured, using a random one; tokens will not survive a restart")
	}

	mock, err := server.NewMockAPI(server.MockAPIOpts{
		Secret:   []byte(secret),
		TokenTTL: cmd.Duration("token-ttl"),
		Logger:   shared.WithLogger(r.logger, "component", "mock"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("Serving mock movie API on http://%s (Ctrl+C to stop)\n", addr)
	return mock.Serve(ctx, addr)
}

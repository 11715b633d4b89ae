// Package main runs the in-memory development backend, an HTTP server that
// speaks the simulation API so the client can be exercised without the
// production service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/amora-planner/internal/config"
	"github.com/phrazzld/amora-planner/internal/devserver"
	"github.com/phrazzld/amora-planner/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("devserver: %v", err)
	}
}

// run loads configuration, builds the server and blocks until ctx is done.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireDevServer(); err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	srv, err := devserver.New(devserver.Config{
		Secret:        cfg.DevServer.Secret,
		TokenLifetime: cfg.DevServer.TokenLifetime,
		Logger:        l,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	l.Info("Development server configuration loaded",
		slog.String("addr", cfg.DevServer.Addr),
		slog.Duration("token_lifetime", cfg.DevServer.TokenLifetime))

	return serve(ctx, cfg.DevServer.Addr, srv.Handler(), l)
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/amora-planner/internal/config"
	"github.com/phrazzld/amora-planner/internal/connectivity"
	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/events"
	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/phrazzld/amora-planner/internal/platform/backend"
	"github.com/phrazzld/amora-planner/internal/platform/localstore"
	"github.com/phrazzld/amora-planner/internal/platform/postgres"
	"github.com/phrazzld/amora-planner/internal/platform/redis"
	"github.com/phrazzld/amora-planner/internal/service"
)

// application holds the wired client components and the resources that must
// be released on exit.
type application struct {
	config *config.Config
	logger *slog.Logger

	kv      kv.Store
	closers []func() error

	emitter *events.InMemoryEmitter
	state   *connectivity.State
	monitor *connectivity.Monitor
	remote  *backend.Client
	service *service.SyncService
}

// newApplication opens the configured storage and wires the remote and local
// backends behind the sync facade.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	var err error
	app.kv, err = app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	creds := credential.NewKVProvider(app.kv)
	app.emitter = events.NewInMemoryEmitter(logger)

	app.state, err = connectivity.NewState(ctx, app.kv, app.emitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to load connectivity state: %w", err)
	}

	app.remote, err = backend.NewClient(cfg.Backend.BaseURL, creds,
		backend.WithRequestTimeout(cfg.Backend.RequestTimeout),
		backend.WithLogger(logger))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	app.monitor = connectivity.NewMonitor(app.state, app.remote, cfg.Connectivity.ProbeTimeout, logger)

	local, err := localstore.New(app.kv, creds, localstore.WithLogger(logger))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create local store: %w", err)
	}

	app.service, err = service.NewSyncService(service.Deps{
		Remote:      app.remote,
		Local:       local,
		State:       app.state,
		Prober:      app.monitor,
		Health:      app.remote,
		Credentials: creds,
		BaseURL:     app.remote.BaseURL(),
		Logger:      logger,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create sync service: %w", err)
	}
	app.emitter.RegisterHandler(app.service, events.TypeModeChanged)

	logger.Debug("Application initialized",
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("base_url", app.remote.BaseURL()))
	return app, nil
}

// openStore returns the kv.Store selected by storage.driver.
func (app *application) openStore(ctx context.Context) (kv.Store, error) {
	cfg := app.config.Storage
	switch cfg.Driver {
	case "memory":
		return kv.NewMemoryStore(), nil

	case "file":
		s, err := kv.NewOSFileStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			app.cleanup()
			return nil, err
		}
		return postgres.NewKVStore(db), nil

	case "redis":
		client, err := redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		return redis.NewKVStore(client, ""), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// cleanup stops the monitor and releases storage connections.
func (app *application) cleanup() {
	if app.monitor != nil {
		app.monitor.Stop()
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error("Error closing storage connection", "error", err)
		}
	}
	app.closers = nil
}

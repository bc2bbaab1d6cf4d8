package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/platform/metrics"
	"github.com/phrazzld/vocab-api/internal/platform/postgres"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/session"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	// snapshots is nil when sessions are memory-only.
	snapshots *postgres.SnapshotStore
	registry  *session.Registry

	jwtService auth.JWTService
	provider   generation.Provider
	metrics    *metrics.Metrics
}

// newApplication creates a new application instance with all dependencies
// initialized. db may be nil.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("session token service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.provider, err = newProvider(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	var store session.SnapshotStore
	if db != nil {
		app.snapshots = postgres.NewSnapshotStore(db, logger)
		store = app.snapshots
	}

	var seed []domain.VocabularyEntry
	if cfg.Session.SeedVocabulary {
		seed = domain.DefaultVocabulary()
	}

	app.registry = session.NewRegistry(session.Options{
		Generator:         app.provider,
		Examples:          app.provider,
		GenerationTimeout: cfg.Session.GenerationTimeout(),
		AutoAdvanceDelay:  cfg.Session.AutoAdvanceDelay(),
		Seed:              seed,
		Logger:            logger,
		Metrics:           app.metrics,
	}, store, logger)
	app.metrics.RegisterSessionGauge(app.registry.Len)

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.registry != nil {
		app.registry.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}

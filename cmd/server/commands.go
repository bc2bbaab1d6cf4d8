package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// errNoDatabase is returned by commands that need database.url.
var errNoDatabase = errors.New("database URL is not configured (set VOCAB_DATABASE_URL)")

func newServeCmd(configDir *string) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeApp(*configDir)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg, log, autoMigrate)
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log, db)
			if err != nil {
				if db != nil {
					_ = db.Close()
				}
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset]",
		Short:     "Manage the session database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion, postgres.MigrateReset},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeApp(*configDir)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errNoDatabase
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database.URL, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("error closing database connection", slog.String("error", err.Error()))
				}
			}()

			return postgres.Migrate(ctx, db, args[0], log)
		},
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp(configDir string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.Bool("persistence", cfg.Database.URL != ""))
	return cfg, log, nil
}

// openDatabase connects when database.url is set. Without it sessions live
// in memory only and nil is returned.
func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		if migrate {
			return nil, errNoDatabase
		}
		log.Info("no database configured, sessions are kept in memory only")
		return nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

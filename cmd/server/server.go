package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	minJanitorPeriod  = time.Minute
)

// startHTTPServer serves router until ctx is canceled or the listener
// fails, then shuts down gracefully.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	go app.runJanitor(serverCtx)

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			serveErr <- err
			cancelServer()
		}
	}()

	<-serverCtx.Done()
	app.logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		app.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup()
	app.logger.Info("server shutdown completed")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runJanitor evicts idle sessions from memory and purges persisted
// sessions whose tokens can no longer be valid.
func (app *application) runJanitor(ctx context.Context) {
	idle := app.config.Session.IdleTimeout()
	period := idle / 2
	if period < minJanitorPeriod {
		period = minJanitorPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.sweep(ctx, now)
		}
	}
}

func (app *application) sweep(ctx context.Context, now time.Time) {
	app.registry.EvictIdle(now, app.config.Session.IdleTimeout())

	if app.snapshots == nil {
		return
	}
	cutoff := now.Add(-app.config.Auth.TokenLifetime())
	if _, err := app.snapshots.DeleteStale(ctx, cutoff); err != nil {
		app.logger.Warn("failed to purge stale sessions", slog.String("error", err.Error()))
	}
}

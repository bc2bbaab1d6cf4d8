package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocab-api/internal/api"
	apiMiddleware "github.com/phrazzld/vocab-api/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(app.metrics.Middleware)

	sessionHandler := api.NewSessionHandler(
		app.registry,
		app.jwtService,
		app.config.Auth.TokenLifetime(),
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.registry)

	api.RegisterRoutes(r, sessionHandler, authMiddleware.Authenticate)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}

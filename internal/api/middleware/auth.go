package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/session"
)

// SessionResolver looks up live or persisted sessions by ID.
type SessionResolver interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// AuthMiddleware authenticates session tokens for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	sessions   SessionResolver
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		sessions:   sessions,
	}
}

// Authenticate validates the bearer token from the Authorization header,
// resolves the session it names and adds the session to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrMissingToken),
				errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContextOrDefault(r.Context(), nil).
					Error("failed to validate token", slog.String("error", redact.Error(err)))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		s, err := m.sessions.Get(r.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Session expired")
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to load session", err)
			return
		}

		ctx := shared.WithSession(r.Context(), s)
		log := logger.FromContextOrDefault(ctx, nil).With(slog.String("session_id", s.ID()))
		ctx = logger.WithContext(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

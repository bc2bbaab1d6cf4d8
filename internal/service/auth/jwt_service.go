// Package auth issues and validates the bearer tokens that bind API requests
// to a trainer session. Sessions are anonymous: the token is the only
// credential and its subject is the session ID.
package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing session tokens.
type JWTService interface {
	// GenerateToken creates a signed token for the session.
	GenerateToken(ctx context.Context, sessionID string) (string, error)

	// ValidateToken validates the token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of a session token.
type Claims struct {
	// SessionID is the trainer session the token grants access to.
	SessionID string    `json:"sid"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	ID        string    `json:"jti"`
}

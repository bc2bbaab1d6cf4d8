package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/session"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// SessionContextKey is the context key for the authenticated *session.Session
	SessionContextKey ContextKey = "session"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID back to the client.
	TraceIDHeader = "X-Trace-ID"
)

// SetTraceID adds a fresh trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithSession stores the authenticated session in the context.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, s)
}

// SessionFromContext returns the session placed in the context by the
// auth middleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*session.Session)
	return s, ok && s != nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/redact"
)

// SnapshotStore persists session data between restarts.
type SnapshotStore interface {
	// Save upserts the data for id.
	Save(ctx context.Context, id string, data Data) error
	// Load returns ErrSessionNotFound when nothing is stored for id.
	Load(ctx context.Context, id string) (Data, error)
	Delete(ctx context.Context, id string) error
}

const autoAdvanceSaveTimeout = 5 * time.Second

// Registry maps session IDs to live sessions. Sessions never share mutable
// state; the registry only owns the map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts   Options
	store  SnapshotStore
	logger *slog.Logger
}

// NewRegistry creates a registry that builds sessions from opts. Each
// session gets its own random source; opts.Rand and opts.OnAutoAdvance are
// ignored. store may be nil for memory-only sessions.
func NewRegistry(opts Options, store SnapshotStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   logger.With(slog.String("component", "session_registry")),
	}
	opts.Rand = nil
	opts.OnAutoAdvance = r.saveAfterAutoAdvance
	r.opts = opts
	return r
}

// Create starts a new session with a fresh ID.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	s := New(id, r.opts)

	if err := r.Save(ctx, s); err != nil {
		s.Close()
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "session created", slog.String("session_id", id))
	return s, nil
}

// Get returns the live session for id, restoring it from the snapshot store
// when it is not in memory.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	data, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	restored, err := Restore(id, data, r.opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = restored
	r.logger.InfoContext(ctx, "session restored", slog.String("session_id", id))
	return restored, nil
}

// Save persists s. It is a no-op without a snapshot store.
func (r *Registry) Save(ctx context.Context, s *Session) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(ctx, s.ID(), s.Data()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *Registry) saveAfterAutoAdvance(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), autoAdvanceSaveTimeout)
	defer cancel()
	if err := r.Save(ctx, s); err != nil {
		r.logger.Error("failed to save session after auto-advance",
			slog.String("session_id", s.ID()),
			slog.String("error", redact.Error(err)))
	}
}

// Remove closes and forgets a session, including its snapshot.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("failed to delete session snapshot: %w", err)
		}
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Len returns the number of sessions in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle drops sessions idle for longer than maxIdle from memory and
// returns how many were evicted. Persisted snapshots are kept, so evicted
// sessions can still be restored by Get.
func (r *Registry) EvictIdle(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.Busy() || now.Sub(s.LastActive()) <= maxIdle {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, s)
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		r.logger.Info("evicted idle sessions", slog.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Close stops every live session's timers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}

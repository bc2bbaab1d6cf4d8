package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/session"
)

const sessionsTable = "sessions"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SnapshotStore implements session.SnapshotStore. Each session is one row
// whose data column holds the JSON-encoded session.Data.
type SnapshotStore struct {
	db       DBTX
	logger   *slog.Logger
	timeFunc func() time.Time
}

var _ session.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a SnapshotStore over db.
func NewSnapshotStore(db DBTX, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{
		db:       db,
		logger:   logger.With(slog.String("component", "snapshot_store")),
		timeFunc: time.Now,
	}
}

// Save upserts the session data.
func (s *SnapshotStore) Save(ctx context.Context, id string, data session.Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	now := s.timeFunc().UTC()

	query, args, err := psql.Insert(sessionsTable).
		Columns("id", "data", "created_at", "updated_at").
		Values(id, string(payload), now, now).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save session",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// Load returns the stored data for id or session.ErrSessionNotFound.
func (s *SnapshotStore) Load(ctx context.Context, id string) (session.Data, error) {
	query, args, err := psql.Select("data").
		From(sessionsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return session.Data{}, fmt.Errorf("failed to build load query: %w", err)
	}

	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		return session.Data{}, MapError(err)
	}

	var data session.Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return session.Data{}, fmt.Errorf("%w: %v", session.ErrInvalidSnapshot, err)
	}
	return data, nil
}

// Delete removes the row for id. A missing row is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(sessionsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

// DeleteStale removes sessions not saved since before cutoff and reports
// how many were deleted.
func (s *SnapshotStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete(sessionsTable).
		Where(sq.Lt{"updated_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build purge query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "purged stale sessions", slog.Int64("count", n))
	}
	return n, nil
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/vocab-api/internal/session"
)

// PostgreSQL error codes
const (
	// undefinedTableCode is returned when the schema has not been migrated.
	undefinedTableCode = "42P01"

	// invalidTextRepresentationCode covers malformed JSON in a jsonb column.
	invalidTextRepresentationCode = "22P02"
)

// ErrSchemaMissing is returned when the sessions table does not exist.
var ErrSchemaMissing = errors.New("database schema is missing, run the migrate command")

// MapError maps a database error to an application error, wrapping the
// original to preserve context.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", session.ErrSessionNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedTableCode:
			return fmt.Errorf("%w: %v", ErrSchemaMissing, err)
		case invalidTextRepresentationCode:
			return fmt.Errorf("%w: %v", session.ErrInvalidSnapshot, err)
		}
	}

	return err
}

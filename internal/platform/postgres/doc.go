// Package postgres persists trainer sessions in PostgreSQL. It opens the
// pgx-backed database/sql pool, applies the embedded goose migrations and
// implements session.SnapshotStore with squirrel-built queries.
package postgres

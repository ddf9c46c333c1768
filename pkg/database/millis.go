package database

import (
	"database/sql"
	"time"
)

// Instants are stored as Unix milliseconds so the same column type works on
// Postgres and SQLite without driver-specific time parsing.

// MillisOf converts an optional instant to a nullable column value.
func MillisOf(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// TimeOf is the inverse of MillisOf. Results are in UTC.
func TimeOf(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := time.UnixMilli(ms.Int64).UTC()
	return &t
}

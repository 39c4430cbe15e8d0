package store

import (
	"strings"

	"github.com/mattn/go-sqlite3"
)

// isUniqueConstraintErr reports whether err is a SQLite UNIQUE constraint
// violation, used to translate low-level driver errors into ErrDuplicate.
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	// Fallback for wrapped/driver-shimmed errors that don't surface the
	// typed sqlite3.Error (e.g. through database/sql's generic path).
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

//go:build !purego_sqlite

package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver registered by mattn/go-sqlite3.
const driverName = "sqlite3"

// buildDSN renders the connection string with pragmas.
// See: https://github.com/mattn/go-sqlite3#connection-string
func buildDSN(cfg Config) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout.Milliseconds(),
	)
}

// IsLockContention reports whether err is SQLite's "database is locked"
// condition (SQLITE_BUSY) or a table-level SQLITE_LOCKED.
func IsLockContention(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return true
	default:
		return false
	}
}

// IsConstraintViolation reports whether err is a SQLITE_CONSTRAINT failure.
func IsConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint
}

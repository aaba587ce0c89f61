//go:build purego_sqlite

package database

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// primaryCodeMask strips the extended bits from a SQLite result code.
const primaryCodeMask = 0xff

// buildDSN renders the connection string with _pragma parameters, which
// modernc applies to every new connection.
func buildDSN(cfg Config) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)",
		cfg.Path,
		cfg.BusyTimeout.Milliseconds(),
	)
}

// IsLockContention reports whether err is SQLite's "database is locked"
// condition (SQLITE_BUSY) or a table-level SQLITE_LOCKED.
func IsLockContention(err error) bool {
	code, ok := primaryCode(err)
	if !ok {
		return false
	}
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// IsConstraintViolation reports whether err is a SQLITE_CONSTRAINT failure.
func IsConstraintViolation(err error) bool {
	code, ok := primaryCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT
}

func primaryCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code() & primaryCodeMask, true
}

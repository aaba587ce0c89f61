// Package database provides SQLite connectivity for sqlitelib.
//
// This package manages:
//   - Opening one database file with WAL journaling and synchronous=NORMAL
//   - A short busy timeout so lock contention surfaces as SQLITE_BUSY quickly
//   - Per-call sessions checked out of a small pool bound to that one file
//   - Classifying driver errors (lock contention, constraint violations)
//
// # Drivers
//
// The default build uses github.com/mattn/go-sqlite3 (CGO). Building with
// -tags purego_sqlite switches to modernc.org/sqlite. Both register their
// own DSN format; buildDSN and IsLockContention live in the per-driver files.
//
// Performance Characteristics:
//   - WAL mode allows concurrent readers during a writer's transaction
//   - Busy timeout bounds how long a writer waits before SQLITE_BUSY
//   - No in-process lock: concurrent writers contend inside SQLite
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "data/app.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	conn, err := db.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
package database

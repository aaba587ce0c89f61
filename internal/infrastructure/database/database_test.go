package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := Open(Config{Path: dbPath})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

		db, err := Open(Config{Path: dbPath})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		dir := filepath.Dir(dbPath)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
	})

	t.Run("returns path", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := Open(Config{Path: dbPath})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := Open(Config{})
		if !errors.Is(err, ErrEmptyPath) {
			t.Errorf("Open() error = %v, want ErrEmptyPath", err)
		}
	})
}

// TestJournalMode verifies every session runs in WAL mode.
func TestJournalMode(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	mode, err := db.JournalMode(context.Background())
	if err != nil {
		t.Fatalf("JournalMode() error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("JournalMode() = %q, want %q", mode, "wal")
	}
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Second close should not error (nil check)
	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

// TestSession verifies a checked-out session can run statements.
func TestSession(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	conn, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	defer conn.Close() //nolint:errcheck // Test cleanup

	if _, err := conn.ExecContext(ctx, "CREATE TABLE session_test (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
}

// TestStats verifies the pool honours the configured session limit.
func TestStats(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	stats := db.Stats()
	if stats.MaxOpenConnections != DefaultMaxOpenConns {
		t.Errorf("MaxOpenConnections = %v, want %v", stats.MaxOpenConnections, DefaultMaxOpenConns)
	}
}

// TestIsLockContention verifies SQLITE_BUSY is classified as contention.
func TestIsLockContention(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE busy_test (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	holder, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	defer holder.Close() //nolint:errcheck // Test cleanup

	if _, err := holder.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("BEGIN IMMEDIATE error = %v", err)
	}
	defer holder.ExecContext(ctx, "ROLLBACK") //nolint:errcheck // Test cleanup

	_, err = db.ExecContext(ctx, "INSERT INTO busy_test (id) VALUES (1)")
	if err == nil {
		t.Fatal("INSERT while locked: expected error, got nil")
	}
	if !IsLockContention(err) {
		t.Errorf("IsLockContention(%v) = false, want true", err)
	}

	if IsLockContention(nil) {
		t.Error("IsLockContention(nil) = true, want false")
	}
	if IsLockContention(errors.New("plain")) {
		t.Error("IsLockContention(plain error) = true, want false")
	}
}

// TestIsConstraintViolation verifies constraint failures are classified.
func TestIsConstraintViolation(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE uniq_test (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO uniq_test (id) VALUES (1)"); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO uniq_test (id) VALUES (1)")
	if !IsConstraintViolation(err) {
		t.Errorf("IsConstraintViolation(%v) = false, want true", err)
	}
	if IsLockContention(err) {
		t.Errorf("IsLockContention(%v) = true, want false", err)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(Config{
		Path:        dbPath,
		BusyTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	return db
}

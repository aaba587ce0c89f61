package executor

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/nerrad567/sqlitelib/internal/infrastructure/database"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/logging"
	"github.com/nerrad567/sqlitelib/internal/taglog"
)

// DefaultCommandTimeout bounds a single call when Config.CommandTimeout is zero.
const DefaultCommandTimeout = 60 * time.Second

// Config describes the database an Executor works against.
type Config struct {
	// Path is the SQLite file. Its directory is created if missing.
	Path string

	// Name identifies the database in logs, crash notifications and
	// metrics. Defaults to the file name without extension.
	Name string

	// Verbose forwards statement dumps and batch failures to the tagged
	// log in addition to the diagnostic logger.
	Verbose bool

	// CrashReportDir receives crash report files. Defaults to the
	// directory holding the database.
	CrashReportDir string

	// BusyTimeout is how long SQLite waits on a lock before reporting
	// contention. Zero selects database.DefaultBusyTimeout.
	BusyTimeout time.Duration

	// CommandTimeout caps each call, applied as a context deadline.
	// Zero selects DefaultCommandTimeout.
	CommandTimeout time.Duration

	// MaxOpenConns limits concurrent sessions. Zero selects
	// database.DefaultMaxOpenConns.
	MaxOpenConns int
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		base := filepath.Base(c.Path)
		c.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if c.CrashReportDir == "" {
		c.CrashReportDir = filepath.Dir(c.Path)
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = database.DefaultBusyTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = database.DefaultMaxOpenConns
	}
	return c
}

// Option customises an Executor.
type Option func(*Executor)

// WithLogger sets the diagnostic logger. Defaults to logging.Default().
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithTagLog sets the tagged log used when Config.Verbose is on. The
// executor works on its own clone.
func WithTagLog(l *taglog.Logger) Option {
	return func(e *Executor) { e.tags = l.Clone() }
}

// WithClock sets the time source for crash reports and batch timing.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

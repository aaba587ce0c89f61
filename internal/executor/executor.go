package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/database"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/logging"
	"github.com/nerrad567/sqlitelib/internal/statement"
	"github.com/nerrad567/sqlitelib/internal/taglog"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Executor runs statements against one SQLite file. Every call checks out
// its own session and releases it before returning; the executor holds no
// lock of its own, so concurrent callers are serialised only by SQLite.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Executor struct {
	db     *database.DB
	cfg    Config
	logger *logging.Logger
	tags   *taglog.Logger
	now    func() time.Time
	closed atomic.Bool

	onBatch          func(BatchResult)
	onCrashReport    func(report crashreport.Report, path string)
	onStatementError func(op string, err error)
	callbackMu       sync.RWMutex
}

// New opens the database described by cfg.
//
// Parameters:
//   - cfg: Database file and timeouts; zero fields take defaults
//   - opts: Logger, tagged log and clock overrides
//
// Returns:
//   - *Executor: Ready for use; Close when done
//   - error: ErrNoPath, or if the database cannot be opened
func New(cfg Config, opts ...Option) (*Executor, error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}
	cfg = cfg.withDefaults()

	e := &Executor{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	e.logger = e.logger.With("component", "executor", "database", cfg.Name)
	if e.tags == nil {
		e.tags = taglog.New()
	}
	e.tags.AddTag(cfg.Name)

	db, err := database.Open(database.Config{
		Path:         cfg.Path,
		BusyTimeout:  cfg.BusyTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening executor database: %w", err)
	}
	e.db = db

	e.logger.Debug("executor ready",
		"path", cfg.Path,
		"driver", database.Driver(),
		"busy_timeout", cfg.BusyTimeout,
		"command_timeout", cfg.CommandTimeout,
	)
	return e, nil
}

// Path returns the database file path.
func (e *Executor) Path() string {
	return e.cfg.Path
}

// Name returns the database name used in diagnostics.
func (e *Executor) Name() string {
	return e.cfg.Name
}

// CrashReportDir returns where crash reports are written.
func (e *Executor) CrashReportDir() string {
	return e.cfg.CrashReportDir
}

// Close releases the connection pool. Calls made afterwards fail with ErrClosed.
func (e *Executor) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.db.Close()
}

// HealthCheck verifies the database answers a trivial query.
func (e *Executor) HealthCheck(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.HealthCheck(ctx)
}

// SetOnBatch sets a callback invoked after every batch with its result.
func (e *Executor) SetOnBatch(callback func(BatchResult)) {
	e.callbackMu.Lock()
	e.onBatch = callback
	e.callbackMu.Unlock()
}

// SetOnCrashReport sets a callback invoked after a crash report was written.
func (e *Executor) SetOnCrashReport(callback func(report crashreport.Report, path string)) {
	e.callbackMu.Lock()
	e.onCrashReport = callback
	e.callbackMu.Unlock()
}

// SetOnStatementError sets a callback invoked when a single-statement
// operation fails. op is the operation name, e.g. "ExecuteNonQuery".
func (e *Executor) SetOnStatementError(callback func(op string, err error)) {
	e.callbackMu.Lock()
	e.onStatementError = callback
	e.callbackMu.Unlock()
}

// ExecuteNonQuery runs one statement and returns the number of rows affected.
//
// On failure the statement text is written to the diagnostic logger and the
// engine error is returned wrapped; errors.As still reaches it.
func (e *Executor) ExecuteNonQuery(ctx context.Context, stmt statement.Statement) (int64, error) {
	var affected int64
	err := e.withSession(ctx, stmt, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, stmt.Text(), stmt.Args()...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, e.statementFailed("ExecuteNonQuery", stmt, err)
	}
	return affected, nil
}

// ExecuteReader runs a query and returns every row. Rows are fully read
// before the session is released.
func (e *Executor) ExecuteReader(ctx context.Context, stmt statement.Statement) ([]Row, error) {
	var out []Row
	err := e.withSession(ctx, stmt, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, stmt.Text(), stmt.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.ColumnTypes()
		if err != nil {
			return err
		}
		for rows.Next() {
			vals, err := scanRow(rows, cols)
			if err != nil {
				return err
			}
			row := make(Row, len(cols))
			for i, c := range cols {
				row[c.Name()] = vals[i]
			}
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, e.statementFailed("ExecuteReader", stmt, err)
	}
	return out, nil
}

// ExecuteScalar returns the first column of the first row, or nil when the
// query yields no rows.
func (e *Executor) ExecuteScalar(ctx context.Context, stmt statement.Statement) (any, error) {
	var out any
	err := e.withSession(ctx, stmt, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, stmt.Text(), stmt.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.ColumnTypes()
		if err != nil {
			return err
		}
		if rows.Next() {
			vals, err := scanRow(rows, cols)
			if err != nil {
				return err
			}
			if len(vals) > 0 {
				out = vals[0]
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, e.statementFailed("ExecuteScalar", stmt, err)
	}
	return out, nil
}

// ExecuteScalarInt64 is ExecuteScalar converted to int64. No row, NULL and
// values that are not numeric all yield 0.
func (e *Executor) ExecuteScalarInt64(ctx context.Context, stmt statement.Statement) (int64, error) {
	v, err := e.ExecuteScalar(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return AsInt64(v), nil
}

// ExecuteNonQueryAsync runs ExecuteNonQuery in the background.
func (e *Executor) ExecuteNonQueryAsync(ctx context.Context, stmt statement.Statement) *Pending[int64] {
	return goPending(func() (int64, error) { return e.ExecuteNonQuery(ctx, stmt) })
}

// ExecuteReaderAsync runs ExecuteReader in the background.
func (e *Executor) ExecuteReaderAsync(ctx context.Context, stmt statement.Statement) *Pending[[]Row] {
	return goPending(func() ([]Row, error) { return e.ExecuteReader(ctx, stmt) })
}

// ExecuteScalarAsync runs ExecuteScalar in the background.
func (e *Executor) ExecuteScalarAsync(ctx context.Context, stmt statement.Statement) *Pending[any] {
	return goPending(func() (any, error) { return e.ExecuteScalar(ctx, stmt) })
}

// ExecuteScalarInt64Async runs ExecuteScalarInt64 in the background.
func (e *Executor) ExecuteScalarInt64Async(ctx context.Context, stmt statement.Statement) *Pending[int64] {
	return goPending(func() (int64, error) { return e.ExecuteScalarInt64(ctx, stmt) })
}

// withSession checks out a session under the command deadline, runs fn and
// releases the session on every path.
func (e *Executor) withSession(ctx context.Context, stmt statement.Statement, fn func(context.Context, *sql.Conn) error) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if strings.TrimSpace(stmt.Text()) == "" {
		return statement.ErrEmptyCommand
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CommandTimeout)
	defer cancel()

	conn, err := e.db.Session(ctx)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // returning the session to the pool

	return fn(ctx, conn)
}

// statementFailed reports a single-statement failure and wraps it.
func (e *Executor) statementFailed(op string, stmt statement.Statement, err error) error {
	e.logger.Error("statement failed",
		"op", op,
		"statement", stmt.String(),
		"lock_contention", database.IsLockContention(err),
		"error", err,
	)
	if e.cfg.Verbose {
		e.writeTagLog(op+" failed: "+err.Error()+"\n   "+stmt.String())
	}

	e.callbackMu.RLock()
	callback := e.onStatementError
	e.callbackMu.RUnlock()
	if callback != nil {
		callback(op, err)
	}

	return fmt.Errorf("executing statement: %w", err)
}

// writeTagLog forwards a message to the tagged log. Failures only reach the
// diagnostic logger.
func (e *Executor) writeTagLog(msg string) {
	if err := e.tags.WriteLog(msg); err != nil {
		e.logger.Warn("tagged log write failed", "error", err)
	}
}

// scanRow reads the current row. Values from columns with text affinity
// are returned as string even if the driver hands back bytes.
func scanRow(rows *sql.Rows, cols []*sql.ColumnType) ([]any, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok && hasTextAffinity(c.DatabaseTypeName()) {
			vals[i] = string(b)
		}
	}
	return vals, nil
}

// hasTextAffinity applies SQLite's column affinity rule for TEXT.
func hasTextAffinity(declType string) bool {
	t := strings.ToUpper(declType)
	return strings.Contains(t, "CHAR") || strings.Contains(t, "CLOB") || strings.Contains(t, "TEXT")
}

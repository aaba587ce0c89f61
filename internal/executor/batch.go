package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/database"
	"github.com/nerrad567/sqlitelib/internal/statement"
)

// Outcome classifies how a batch ended.
type Outcome int

// Batch outcomes.
const (
	// Committed means every statement ran and the transaction committed.
	Committed Outcome = iota

	// LockContention means another session held a conflicting lock. The
	// transaction was rolled back and no crash report was written.
	LockContention

	// RecordedFailure means the batch failed for any other reason. The
	// transaction was rolled back and a crash report was written, except
	// when the executor was already closed (Err is ErrClosed): nothing ran,
	// so no report is written.
	RecordedFailure
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case LockContention:
		return "lock_contention"
	case RecordedFailure:
		return "recorded_failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// BatchResult describes a finished batch.
type BatchResult struct {
	Outcome Outcome

	// Database is the executor's Config.Name.
	Database string

	// Statements is the number of statements submitted.
	Statements int

	// FailedIndex is the zero-based statement that failed, or -1 when the
	// failure happened outside a statement (session, begin, commit) or
	// there was none.
	FailedIndex int

	// Err is the underlying failure; nil when committed.
	Err error

	// ReportPath is the crash report written for a RecordedFailure. Empty
	// if writing the report itself failed or the executor was closed.
	ReportPath string

	Duration time.Duration
}

// OK reports whether the batch committed.
func (r BatchResult) OK() bool {
	return r.Outcome == Committed
}

// ExecuteBatch runs stmts in order inside one transaction on one session.
// Either every statement commits or none does.
//
// Failures never surface as a Go error: they are classified in the result.
// Lock contention is rolled back quietly; anything else is rolled back,
// every statement is dumped to the diagnostic logger and a crash report is
// written.
//
// Parameters:
//   - ctx: Cancels the batch; the command timeout applies on top
//   - stmts: Statements to run; their text is used verbatim
//
// Returns:
//   - BatchResult: Outcome and diagnostics
func (e *Executor) ExecuteBatch(ctx context.Context, stmts []statement.Statement) BatchResult {
	start := time.Now()
	res := BatchResult{
		Database:    e.cfg.Name,
		Statements:  len(stmts),
		FailedIndex: -1,
	}

	// An empty batch commits without opening a session.
	if len(stmts) > 0 {
		res.Err = e.runBatch(ctx, stmts, &res.FailedIndex)
	}
	res.Duration = time.Since(start)

	switch {
	case res.Err == nil:
		res.Outcome = Committed
		e.logger.Debug("batch committed", "statements", res.Statements, "duration", res.Duration)
	case database.IsLockContention(res.Err):
		res.Outcome = LockContention
		e.logger.Warn("batch rolled back on lock contention",
			"statements", res.Statements,
			"failed_index", res.FailedIndex,
			"error", res.Err,
		)
	default:
		res.Outcome = RecordedFailure
		e.recordFailure(stmts, &res)
	}

	e.callbackMu.RLock()
	callback := e.onBatch
	e.callbackMu.RUnlock()
	if callback != nil {
		callback(res)
	}

	return res
}

// ExecuteBatchText runs plain command strings as a batch. Each command is
// passed through statement.Inline, so double-quoted literals become
// single-quoted SQL strings.
func (e *Executor) ExecuteBatchText(ctx context.Context, cmds ...string) BatchResult {
	return e.ExecuteBatch(ctx, statement.FromText(cmds...))
}

// ExecuteBatchAsync runs ExecuteBatch in the background. The Pending error
// is always nil; inspect the BatchResult.
func (e *Executor) ExecuteBatchAsync(ctx context.Context, stmts []statement.Statement) *Pending[BatchResult] {
	return goPending(func() (BatchResult, error) { return e.ExecuteBatch(ctx, stmts), nil })
}

// ExecuteBatchTextAsync runs ExecuteBatchText in the background.
func (e *Executor) ExecuteBatchTextAsync(ctx context.Context, cmds ...string) *Pending[BatchResult] {
	return goPending(func() (BatchResult, error) { return e.ExecuteBatchText(ctx, cmds...), nil })
}

// runBatch performs begin, execute and commit. Any return before Commit
// leaves the deferred Rollback to undo the transaction.
func (e *Executor) runBatch(ctx context.Context, stmts []statement.Statement, failedIndex *int) error {
	if e.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CommandTimeout)
	defer cancel()

	conn, err := e.db.Session(ctx)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // returning the session to the pool

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	for i, s := range stmts {
		if strings.TrimSpace(s.Text()) == "" {
			*failedIndex = i
			return fmt.Errorf("statement %d: %w", i, statement.ErrEmptyCommand)
		}
		if _, err := tx.ExecContext(ctx, s.Text(), s.Args()...); err != nil {
			*failedIndex = i
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// recordFailure dumps the batch and writes the crash report.
func (e *Executor) recordFailure(stmts []statement.Statement, res *BatchResult) {
	for i, s := range stmts {
		e.logger.Debug("batch statement", "index", i, "statement", s.String())
	}
	e.logger.Error("batch rolled back",
		"statements", res.Statements,
		"failed_index", res.FailedIndex,
		"error", res.Err,
	)
	if e.cfg.Verbose {
		var b strings.Builder
		fmt.Fprintf(&b, "batch rolled back: %v", res.Err)
		for i, s := range stmts {
			fmt.Fprintf(&b, "\n   [%d] %s", i, s.String())
		}
		e.writeTagLog(b.String())
	}

	if errors.Is(res.Err, ErrClosed) {
		return
	}

	report := crashreport.Capture(res.Err, e.batchOrigin(res), e.now())
	path, err := report.Write(e.cfg.CrashReportDir)
	if err != nil {
		e.logger.Error("writing crash report failed", "dir", e.cfg.CrashReportDir, "error", err)
		return
	}
	res.ReportPath = path
	e.logger.Info("crash report written", "path", path, "id", report.ID)

	e.callbackMu.RLock()
	callback := e.onCrashReport
	e.callbackMu.RUnlock()
	if callback != nil {
		callback(report, path)
	}
}

func (e *Executor) batchOrigin(res *BatchResult) string {
	if res.FailedIndex < 0 {
		return fmt.Sprintf("executor.ExecuteBatch database=%s", e.cfg.Name)
	}
	return fmt.Sprintf("executor.ExecuteBatch database=%s statement=%d/%d",
		e.cfg.Name, res.FailedIndex+1, res.Statements)
}

// Package executor runs SQL statements against a single SQLite file.
//
// Each call opens its own session (a dedicated connection from a small
// pool), uses it and releases it before returning. The executor keeps no
// lock of its own: concurrent callers are serialised by SQLite's file
// locking, with WAL journalling and a short busy timeout.
//
// # Single statements
//
// ExecuteNonQuery, ExecuteReader, ExecuteScalar and ExecuteScalarInt64
// return engine errors to the caller, wrapped, after logging the statement
// text. ExecuteReader buffers every row before returning.
//
// # Batches
//
// ExecuteBatch runs statements in order inside one transaction. The result
// is a BatchResult rather than an error:
//
//   - Committed: every statement ran and the transaction committed.
//   - LockContention: another session held the lock (SQLITE_BUSY or
//     SQLITE_LOCKED). Rolled back, nothing else recorded.
//   - RecordedFailure: anything else. Rolled back, statements dumped to the
//     diagnostic logger and a crash report file written. A batch on a
//     closed executor is the one RecordedFailure without a report.
//
// ExecuteBatchText accepts plain command strings built with inline
// literals and maps double quotes to single quotes first. Statements built
// with statement.New are never rewritten.
//
// # Asynchronous variants
//
// Every operation has an Async twin returning a *Pending whose Wait yields
// exactly what the blocking call would have returned.
//
// # Observers
//
// SetOnBatch, SetOnCrashReport and SetOnStatementError let the caller feed
// results to notifiers and metrics without this package depending on them.
package executor

package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementBatch     = "sqlitelib_batch"
	MeasurementStatement = "sqlitelib_statement"
)

// BatchSample describes one finished batch.
type BatchSample struct {
	Database    string
	Outcome     string
	Statements  int
	FailedIndex int
	Duration    time.Duration
	Time        time.Time
}

// StatementFailure describes one failed single-statement call.
type StatementFailure struct {
	Database       string
	Operation      string
	LockContention bool
	Time           time.Time
}

// WriteBatch records a batch outcome. Tags are database and outcome; the
// point carries the statement count, failed index and duration.
//
// Example:
//
//	exec.SetOnBatch(func(r executor.BatchResult) {
//	    client.WriteBatch(influxdb.BatchSample{Database: r.Database, Outcome: r.Outcome.String(), ...})
//	})
func (c *Client) WriteBatch(s BatchSample) {
	c.writePoint(batchPoint(s))
}

// WriteStatementFailure records a failed ExecuteNonQuery, ExecuteReader or
// ExecuteScalar call.
func (c *Client) WriteStatementFailure(f StatementFailure) {
	c.writePoint(statementFailurePoint(f))
}

func batchPoint(s BatchSample) *write.Point {
	return write.NewPoint(
		MeasurementBatch,
		map[string]string{
			"database": s.Database,
			"outcome":  s.Outcome,
		},
		map[string]interface{}{
			"statements":   int64(s.Statements),
			"failed_index": int64(s.FailedIndex),
			"duration_ms":  float64(s.Duration) / float64(time.Millisecond),
		},
		stamp(s.Time),
	)
}

func statementFailurePoint(f StatementFailure) *write.Point {
	return write.NewPoint(
		MeasurementStatement,
		map[string]string{
			"database":  f.Database,
			"operation": f.Operation,
		},
		map[string]interface{}{
			"failures":        int64(1),
			"lock_contention": f.LockContention,
		},
		stamp(f.Time),
	)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

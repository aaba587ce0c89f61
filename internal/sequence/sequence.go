// Package sequence reads and maintains SQLite's sqlite_sequence table, which
// holds the last AUTOINCREMENT value handed out per table.
//
// sqlite_sequence only exists once the database contains at least one
// AUTOINCREMENT table.
package sequence

import (
	"context"
	"fmt"

	"github.com/nerrad567/sqlitelib/internal/executor"
	"github.com/nerrad567/sqlitelib/internal/statement"
)

// TableName is SQLite's internal sequence table.
const TableName = "sqlite_sequence"

// Executor is the subset of *executor.Executor used here.
type Executor interface {
	ExecuteNonQuery(ctx context.Context, stmt statement.Statement) (int64, error)
	ExecuteReader(ctx context.Context, stmt statement.Statement) ([]executor.Row, error)
	ExecuteScalarInt64(ctx context.Context, stmt statement.Statement) (int64, error)
}

// Table wraps sqlite_sequence for one database.
type Table struct {
	exec Executor
}

// New returns a Table backed by exec.
func New(exec Executor) *Table {
	return &Table{exec: exec}
}

// LastUsedID returns the last id handed out for table. A table with no
// entry, or an entry that is not numeric, yields 0.
func (t *Table) LastUsedID(ctx context.Context, table string) (int64, error) {
	id, err := t.exec.ExecuteScalarInt64(ctx, statement.Must(
		"select seq from sqlite_sequence where name = @name",
		statement.TextParam("name", table),
	))
	if err != nil {
		return 0, fmt.Errorf("reading sequence for %s: %w", table, err)
	}
	return id, nil
}

// Exists reports whether table has an entry. Any error, including a
// database without sqlite_sequence, reports false.
func (t *Table) Exists(ctx context.Context, table string) bool {
	n, err := t.exec.ExecuteScalarInt64(ctx, statement.Must(
		"select count(*) from sqlite_sequence where name = @name",
		statement.TextParam("name", table),
	))
	return err == nil && n > 0
}

// Register adds an entry for table starting at 0.
func (t *Table) Register(ctx context.Context, table string) error {
	_, err := t.exec.ExecuteNonQuery(ctx, statement.Must(
		"insert into sqlite_sequence (name, seq) values (@name, 0)",
		statement.TextParam("name", table),
	))
	if err != nil {
		return fmt.Errorf("registering sequence for %s: %w", table, err)
	}
	return nil
}

// Reset sets the sequence of table back to 0 so the next AUTOINCREMENT id
// is 1 again (provided the table is empty).
func (t *Table) Reset(ctx context.Context, table string) error {
	_, err := t.exec.ExecuteNonQuery(ctx, statement.Must(
		"update sqlite_sequence set seq = 0 where name = @name",
		statement.TextParam("name", table),
	))
	if err != nil {
		return fmt.Errorf("resetting sequence for %s: %w", table, err)
	}
	return nil
}

// All returns every table's last used id.
func (t *Table) All(ctx context.Context) (map[string]int64, error) {
	rows, err := t.exec.ExecuteReader(ctx, statement.Plain("select name, seq from sqlite_sequence"))
	if err != nil {
		return nil, fmt.Errorf("listing sequences: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[asString(r["name"])] = executor.AsInt64(r["seq"])
	}
	return out, nil
}

// asString reads a name column. sqlite_sequence declares no column types,
// so drivers may hand text back as bytes.
func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return ""
	}
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/nerrad567/sqlitelib/internal/executor"
)

// Exit codes for CLI commands.
const (
	ExitSuccess        = 0
	ExitFailure        = 1 // statement or batch failed
	ExitCommandError   = 2 // bad arguments, unreadable config, unopenable database
	ExitLockContention = 3 // batch skipped because the database was locked
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes command results as text or JSON.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) json() bool {
	return p.format == "json"
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rows prints query results. Text output is a tab-aligned table with
// columns in name order.
func (p printer) rows(rows []executor.Row) error {
	if p.json() {
		if rows == nil {
			rows = []executor.Row{}
		}
		return p.encode(rows)
	}
	if len(rows) == 0 {
		color.New(color.FgHiBlack).Fprintln(p.w, "(no rows)") //nolint:errcheck // terminal output
		return nil
	}

	cols := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, color.CyanString(c))
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, formatValue(row[c]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// batch prints a batch outcome line.
func (p printer) batch(res executor.BatchResult) error {
	if p.json() {
		out := map[string]any{
			"database":     res.Database,
			"outcome":      res.Outcome.String(),
			"statements":   res.Statements,
			"failed_index": res.FailedIndex,
			"duration_ms":  res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			out["error"] = res.Err.Error()
		}
		if res.ReportPath != "" {
			out["report_path"] = res.ReportPath
		}
		return p.encode(out)
	}

	outcomeColor(res.Outcome).Fprintf(p.w, "%s", res.Outcome) //nolint:errcheck // terminal output
	fmt.Fprintf(p.w, " %d statement(s) in %s\n", res.Statements, res.Duration.Round(time.Microsecond))
	if res.Err != nil {
		fmt.Fprintf(p.w, "  error: %v\n", res.Err)
	}
	if res.ReportPath != "" {
		fmt.Fprintf(p.w, "  crash report: %s\n", res.ReportPath)
	}
	return nil
}

func outcomeColor(o executor.Outcome) *color.Color {
	switch o {
	case executor.Committed:
		return color.New(color.FgGreen)
	case executor.LockContention:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("x'%x'", x)
	default:
		return fmt.Sprint(x)
	}
}

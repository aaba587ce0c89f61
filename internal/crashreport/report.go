package crashreport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	filePrefix = "CrashReport-"
	fileSuffix = ".txt"

	// timeLayout renders local time down to milliseconds.
	timeLayout = "20060102150405.000"

	idLength = 8

	dirPermissions  = 0750
	filePermissions = 0600

	maxNameAttempts = 3
)

// Report is the captured state of one failure.
type Report struct {
	Time    time.Time
	ID      string
	Message string
	Origin  string
	Stack   string
}

// Capture builds a report for err, recording the calling goroutine's stack.
//
// Parameters:
//   - err: The failure being reported (nil yields an empty message)
//   - origin: Component and operation that raised it, e.g. "executor.ExecuteBatch"
//   - now: Capture time
//
// Returns:
//   - Report: Ready to Render or Write
func Capture(err error, origin string, now time.Time) Report {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Report{
		Time:    now,
		ID:      newID(),
		Message: msg,
		Origin:  origin,
		Stack:   string(debug.Stack()),
	}
}

// FileName returns the report's base file name.
func (r Report) FileName() string {
	return filePrefix + r.Time.Format(timeLayout) + "_" + r.ID + fileSuffix
}

// Render returns the file body.
func (r Report) Render() []byte {
	var b strings.Builder
	writeSection(&b, "Message", r.Message)
	writeSection(&b, "Origin", r.Origin)
	writeSection(&b, "Stacktrace", r.Stack)
	return []byte(b.String())
}

func writeSection(b *strings.Builder, label, body string) {
	b.WriteString("[" + label + "]\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
}

// Write stores the report in dir, creating the directory if needed.
// If the generated name is taken a fresh ID is drawn; the report's ID is
// updated in place so callers see the name that was actually written.
//
// Returns the full path of the new file.
func (r *Report) Write(dir string) (string, error) {
	if dir == "" {
		return "", ErrNoDirectory
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("creating crash report directory: %w", err)
	}
	if r.ID == "" {
		r.ID = newID()
	}

	for range maxNameAttempts {
		path := filepath.Join(dir, r.FileName())
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
		if errors.Is(err, os.ErrExist) {
			r.ID = newID()
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating crash report: %w", err)
		}

		if _, err := f.Write(r.Render()); err != nil {
			f.Close() //nolint:errcheck // write error takes precedence
			return "", fmt.Errorf("writing crash report: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing crash report: %w", err)
		}
		return path, nil
	}

	return "", ErrNameCollision
}

// IsReportFile reports whether name looks like a crash report file name.
func IsReportFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// List returns the crash report files in dir, oldest name first.
// A missing directory yields no files and no error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing crash reports: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() && IsReportFile(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

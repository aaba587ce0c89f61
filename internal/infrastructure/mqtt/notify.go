package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
)

// CrashNotification announces a written crash report. The report body
// stays on disk; Path locates it.
type CrashNotification struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Database string    `json:"database"`
	Message  string    `json:"message"`
	Origin   string    `json:"origin"`
	Path     string    `json:"path"`
}

// BatchNotification announces the outcome of one batch.
type BatchNotification struct {
	Database    string  `json:"database"`
	Outcome     string  `json:"outcome"`
	Statements  int     `json:"statements"`
	FailedIndex int     `json:"failed_index"`
	DurationMS  float64 `json:"duration_ms"`
	Error       string  `json:"error,omitempty"`
	ReportPath  string  `json:"report_path,omitempty"`
}

// NewCrashNotification builds the message for a report written to path.
func NewCrashNotification(database string, report crashreport.Report, path string) CrashNotification {
	return CrashNotification{
		ID:       report.ID,
		Time:     report.Time.UTC(),
		Database: database,
		Message:  report.Message,
		Origin:   report.Origin,
		Path:     path,
	}
}

// PublishCrashReport announces a crash report on Topics.Crash(database).
// Crash notifications are not retained.
func (c *Client) PublishCrashReport(database string, report crashreport.Report, path string) error {
	payload, err := json.Marshal(NewCrashNotification(database, report, path))
	if err != nil {
		return fmt.Errorf("encoding crash notification: %w", err)
	}
	return c.Publish(Topics{}.Crash(database), payload, byte(c.cfg.QoS), false)
}

// PublishBatch announces a batch outcome on Topics.Batch(n.Database).
func (c *Client) PublishBatch(n BatchNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding batch notification: %w", err)
	}
	return c.Publish(Topics{}.Batch(n.Database), payload, byte(c.cfg.QoS), false)
}

// ParseCrashNotification decodes a message received on a crash topic.
func ParseCrashNotification(payload []byte) (CrashNotification, error) {
	var n CrashNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return CrashNotification{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if n.ID == "" || n.Database == "" {
		return CrashNotification{}, fmt.Errorf("%w: id and database are required", ErrInvalidPayload)
	}
	return n, nil
}

// ParseBatchNotification decodes a message received on a batch topic.
func ParseBatchNotification(payload []byte) (BatchNotification, error) {
	var n BatchNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return BatchNotification{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if n.Database == "" || n.Outcome == "" {
		return BatchNotification{}, fmt.Errorf("%w: database and outcome are required", ErrInvalidPayload)
	}
	return n, nil
}

package taglog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultPath is the process-relative file used by the default sink.
const DefaultPath = "database_log.txt"

const (
	filePermissions = 0600

	// timeLayout is the header timestamp format.
	timeLayout = "2006-01-02 15:04:05.000"

	// bodyIndent prefixes the message line of every entry.
	bodyIndent = "   "
)

// State is the lifecycle position of a Sink.
type State int

// Sink lifecycle. Closed is terminal.
const (
	StateUninitialized State = iota
	StateOpen
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RetryPolicy bounds how often a failed write or close is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure. It doubles on
	// each further failure up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns 5 attempts with 10ms doubling backoff capped at 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
	}
}

// delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func (p RetryPolicy) normalised() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// Opener creates the sink's underlying writer on first use.
type Opener func(path string) (io.WriteCloser, error)

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithRetryPolicy sets the retry bounds for writes and close.
func WithRetryPolicy(p RetryPolicy) SinkOption {
	return func(s *Sink) { s.retry = p.normalised() }
}

// WithClock sets the time source used for entry headers.
func WithClock(now func() time.Time) SinkOption {
	return func(s *Sink) { s.now = now }
}

// WithOpener replaces the file opener, e.g. to write into memory in tests.
func WithOpener(open Opener) SinkOption {
	return func(s *Sink) { s.open = open }
}

// Sink is one append-only log destination shared by any number of Loggers.
//
// Every write, blocking or asynchronous, and Close hold the same guard, so
// entries are never interleaved and Close never races a write.
type Sink struct {
	path  string
	open  Opener
	now   func() time.Time
	retry RetryPolicy
	sleep func(ctx context.Context, d time.Duration) error

	guard *semaphore.Weighted

	// Guarded by guard.
	w     io.WriteCloser
	state State
}

// NewSink returns a sink for path that opens the file on first write.
func NewSink(path string, opts ...SinkOption) *Sink {
	s := &Sink{
		path:  path,
		open:  openAppend,
		now:   time.Now,
		retry: DefaultRetryPolicy(),
		sleep: sleepContext,
		guard: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSink returns a sink for path with the file already opened.
//
// Parameters:
//   - path: Log file, created if missing and appended to otherwise
//   - opts: Retry policy, clock or opener overrides
//
// Returns:
//   - *Sink: Sink in StateOpen
//   - error: If the file cannot be opened
func OpenSink(path string, opts ...SinkOption) (*Sink, error) {
	s := NewSink(path, opts...)
	s.guard.Acquire(context.Background(), 1) //nolint:errcheck // background context never cancels
	defer s.guard.Release(1)

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// State returns the current lifecycle state.
func (s *Sink) State() State {
	s.guard.Acquire(context.Background(), 1) //nolint:errcheck // background context never cancels
	defer s.guard.Release(1)
	return s.state
}

// render formats one entry: header line, indented body, blank line.
func (s *Sink) render(prefix, msg string) []byte {
	return []byte(s.now().Format(timeLayout) + " " + prefix + "\n" + bodyIndent + msg + "\n\n")
}

// write appends entry while holding the guard. Transient failures are
// retried per the policy; a closed sink fails immediately with ErrSinkClosed.
func (s *Sink) write(ctx context.Context, entry []byte) error {
	if err := s.guard.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.guard.Release(1)

	if s.state == StateClosed {
		return ErrSinkClosed
	}

	var lastErr error
	written := 0
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retry.delay(attempt-1)); err != nil {
				return err
			}
		}

		if err := s.ensureOpen(); err != nil {
			lastErr = err
			continue
		}

		n, err := s.w.Write(entry[written:])
		written += n
		if err == nil {
			return nil
		}
		if errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("%w: %w", ErrSinkClosed, err)
		}
		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrWriteFailed, s.retry.MaxAttempts, lastErr)
}

// ensureOpen opens the writer on first use. Caller holds the guard.
func (s *Sink) ensureOpen() error {
	if s.state == StateOpen {
		return nil
	}
	w, err := s.open(s.path)
	if err != nil {
		return fmt.Errorf("opening log sink %s: %w", s.path, err)
	}
	s.w = w
	s.state = StateOpen
	return nil
}

// Close releases the underlying file. It waits for any in-flight write,
// retries a failing close per the policy and always leaves the sink in
// StateClosed. A second call returns ErrSinkClosed.
func (s *Sink) Close() error {
	ctx := context.Background()
	s.guard.Acquire(ctx, 1) //nolint:errcheck // background context never cancels
	defer s.guard.Release(1)

	switch s.state {
	case StateClosed:
		return ErrSinkClosed
	case StateUninitialized:
		s.state = StateClosed
		return nil
	}
	s.state = StateClosed

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			s.sleep(ctx, s.retry.delay(attempt-1)) //nolint:errcheck // background context never cancels
		}
		err := s.w.Close()
		if err == nil || errors.Is(err, os.ErrClosed) {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("closing log sink %s: %w", s.path, lastErr)
}

func openAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePermissions)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	defaultMu   sync.Mutex
	defaultPath = DefaultPath
	defaultOpts []SinkOption
	defaultSink *Sink
)

// Default returns the process-wide sink, creating it on first call. The
// file itself is opened by the first write.
func Default() *Sink {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSink == nil {
		defaultSink = NewSink(defaultPath, defaultOpts...)
	}
	return defaultSink
}

// SetDefaultPath configures the process-wide sink. It must be called before
// the default sink is first written to; afterwards it returns ErrSinkInUse.
func SetDefaultPath(path string, opts ...SinkOption) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSink != nil && defaultSink.State() != StateUninitialized {
		return ErrSinkInUse
	}
	defaultPath = path
	defaultOpts = opts
	defaultSink = nil
	return nil
}

// Close closes the process-wide sink. Call it once at shutdown after all
// writers have finished.
func Close() error {
	return Default().Close()
}

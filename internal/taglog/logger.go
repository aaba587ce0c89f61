package taglog

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

const (
	sessionAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"
	sessionIDLength = 5
)

// Logger writes tag-prefixed entries to a Sink. Each Logger owns its tag
// stack; use Clone before handing one to another goroutine.
type Logger struct {
	sink *Sink // nil means the process-wide default

	mu   sync.RWMutex
	tags []string
}

// New returns a Logger on the default sink with the given tags pushed in order.
func New(tags ...string) *Logger {
	return NewWithSink(nil, tags...)
}

// NewWithSink returns a Logger writing to sink. A nil sink means Default().
func NewWithSink(sink *Sink, tags ...string) *Logger {
	l := &Logger{sink: sink}
	for _, t := range tags {
		l.AddTag(t)
	}
	return l
}

func (l *Logger) target() *Sink {
	if l.sink != nil {
		return l.sink
	}
	return Default()
}

// AddTag pushes [tag] unless it equals the current top of the stack.
func (l *Logger) AddTag(tag string) {
	rendered := "[" + tag + "]"

	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.tags); n > 0 && l.tags[n-1] == rendered {
		return
	}
	l.tags = append(l.tags, rendered)
}

// AddSessionTag pushes a random 5-character [A-Za-z0-9] tag and returns the
// raw identifier so related entries can be correlated.
func (l *Logger) AddSessionTag() string {
	id := NewSessionID()
	l.AddTag(id)
	return id
}

// NewSessionID returns a random 5-character identifier.
func NewSessionID() string {
	var b [sessionIDLength]byte
	for i := range b {
		b[i] = sessionAlphabet[rand.IntN(len(sessionAlphabet))]
	}
	return string(b[:])
}

// ClearTags empties the tag stack.
func (l *Logger) ClearTags() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tags = nil
}

// RemoveLastTag pops the top tag. It is a no-op on an empty stack.
func (l *Logger) RemoveLastTag() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.tags); n > 0 {
		l.tags = l.tags[:n-1]
	}
}

// Tags returns a copy of the rendered tag stack, bottom first.
func (l *Logger) Tags() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.tags))
	copy(out, l.tags)
	return out
}

// Prefix returns the concatenated tag stack, e.g. "[db][a1B2c]".
func (l *Logger) Prefix() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return strings.Join(l.tags, "")
}

// Clone returns a Logger on the same sink with an independent copy of the
// whole tag stack.
func (l *Logger) Clone() *Logger {
	return &Logger{sink: l.sink, tags: l.Tags()}
}

// WriteLog appends msg under the current prefix and blocks until it has been
// written. Transient failures are retried per the sink's policy.
//
// Returns:
//   - error: nil on success, ErrSinkClosed after Close, ErrWriteFailed when
//     every attempt failed
func (l *Logger) WriteLog(msg string) error {
	s := l.target()
	return s.write(context.Background(), s.render(l.Prefix(), msg))
}

// WriteLogAsync appends msg in the background. The prefix and timestamp are
// taken at call time, so later tag changes do not affect the entry.
//
// The returned channel receives exactly one value and is then closed. Writes
// that fail because the sink was closed during shutdown report nil; other
// failures, including ctx cancellation while waiting for the sink, are
// reported as errors.
func (l *Logger) WriteLogAsync(ctx context.Context, msg string) <-chan error {
	s := l.target()
	entry := s.render(l.Prefix(), msg)

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := s.write(ctx, entry)
		if errors.Is(err, ErrSinkClosed) || errors.Is(err, os.ErrClosed) {
			err = nil
		}
		done <- err
	}()
	return done
}

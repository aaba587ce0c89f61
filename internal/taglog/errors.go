package taglog

import "errors"

var (
	// ErrSinkClosed is returned by writes and closes after the sink was closed.
	ErrSinkClosed = errors.New("taglog: sink is closed")

	// ErrWriteFailed is returned when a write still fails after every retry.
	ErrWriteFailed = errors.New("taglog: write failed")

	// ErrSinkInUse is returned by SetDefaultPath once the default sink has
	// been opened.
	ErrSinkInUse = errors.New("taglog: default sink already in use")
)

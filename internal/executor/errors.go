package executor

import "errors"

var (
	// ErrClosed is returned by operations on a closed Executor.
	ErrClosed = errors.New("executor: closed")

	// ErrNoPath is returned by New when Config.Path is empty.
	ErrNoPath = errors.New("executor: database path is required")
)

package crashreport

import "errors"

var (
	// ErrNoDirectory is returned by Write when no target directory is set.
	ErrNoDirectory = errors.New("crashreport: directory is required")

	// ErrNameCollision is returned when every generated file name already exists.
	ErrNameCollision = errors.New("crashreport: could not allocate a unique file name")
)

package database

import "errors"

// ErrEmptyPath is returned by Open when no database file path is configured.
var ErrEmptyPath = errors.New("database: path is required")

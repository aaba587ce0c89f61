package statement

import "errors"

// Validation errors returned by New.
var (
	// ErrEmptyCommand is returned when the command text is blank.
	ErrEmptyCommand = errors.New("statement: command text is empty")

	// ErrEmptyParamName is returned when a parameter has no name.
	ErrEmptyParamName = errors.New("statement: parameter name is empty")

	// ErrDuplicateParam is returned when two parameters share a name.
	ErrDuplicateParam = errors.New("statement: duplicate parameter name")

	// ErrParamType is returned when a value does not match its declared type.
	ErrParamType = errors.New("statement: value does not match parameter type")
)

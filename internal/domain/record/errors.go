package record

import "errors"

var (
	// ErrInvalidRef indicates a relation that is neither an id nor a summary object.
	ErrInvalidRef = errors.New("invalid reference")
	// ErrInvalidInput indicates a payload missing required fields.
	ErrInvalidInput = errors.New("invalid record input")
)

package activity

import "errors"

// ErrInvalidEntry indicates an entry missing its user, view, type or record.
var ErrInvalidEntry = errors.New("invalid activity entry")

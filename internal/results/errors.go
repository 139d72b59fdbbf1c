package results

import "errors"

// ErrNotFound is returned when no log entry matches the requested ID.
var ErrNotFound = errors.New("result not found")

package repository

import "errors"

// ErrNotFound is returned when a lookup for a single entity finds nothing.
// The service layer translates it into app_errors.ErrNotFound so callers
// never depend on the storage backend.
var ErrNotFound = errors.New("repository: not found")

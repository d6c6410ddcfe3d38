package storage

import "errors"

// ErrNotFound is wrapped by backends when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey is returned for keys that are empty, absolute or escape
// their folder.
var ErrInvalidKey = errors.New("storage: invalid object key")

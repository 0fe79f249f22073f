// Package store defines shared storage errors and the cached read-through
// wrappers used in front of the backing databases.
package store

import "errors"

// ErrNotFound is returned when a requested record does not exist. Backends
// wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("record not found")

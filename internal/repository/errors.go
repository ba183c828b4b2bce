package repository

import "errors"

// ErrNotFound is returned when a row does not exist, or exists outside the
// caller's barn.
var ErrNotFound = errors.New("not found")

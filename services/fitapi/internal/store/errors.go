package store

import "errors"

// ErrNotFound indicates the identifier matched no stored record.
var ErrNotFound = errors.New("not found")

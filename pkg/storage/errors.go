package storage

import "errors"

// ErrComponentNotFound is returned when a component id does not exist.
var ErrComponentNotFound = errors.New("component not found")

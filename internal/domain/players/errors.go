package players

import "errors"

var (
	// ErrNotFound is returned when a player or level is missing from a table.
	ErrNotFound = errors.New("player or level not found")
	// ErrDuplicatePlayer is returned when registering a name already in the roster.
	ErrDuplicatePlayer = errors.New("player already registered")
)

package service

import "errors"

// Sentinel errors for the service lifecycle.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoStore    = errors.New("no tabular store configured")
)

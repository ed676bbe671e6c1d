package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotStarted = errors.New("session not started")
	ErrStopped    = errors.New("session stopped")
)

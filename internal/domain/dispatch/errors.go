package dispatch

import "errors"

// Sentinel kinds for dispatcher errors.
var (
	ErrNilDependency = errors.New("dispatcher dependency is nil")
	// ErrExhausted marks a beatmap with nothing left to prefetch. It is a
	// terminal state, not a failure.
	ErrExhausted = errors.New("beatmap exhausted")
)

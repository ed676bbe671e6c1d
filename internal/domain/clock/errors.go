package clock

import "errors"

// Sentinel kinds for clock errors.
var (
	ErrNilAudio      = errors.New("clock requires an audio collaborator")
	ErrInvalidOffset = errors.New("invalid start offset")
)

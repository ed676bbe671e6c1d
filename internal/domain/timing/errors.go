package timing

import "errors"

// Sentinel kinds for timing errors.
var (
	ErrInvalidSignature = errors.New("invalid time signature")
	ErrInvalidPosition  = errors.New("invalid beatmap position")
)

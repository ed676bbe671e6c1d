package audio

import "errors"

// Sentinel kinds for audio errors.
var (
	ErrDecode = errors.New("audio decode failed")
)

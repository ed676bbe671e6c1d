package ticker

import "errors"

// Sentinel kinds for ticker errors.
var (
	ErrInvalidArgument = errors.New("invalid tick argument")
)

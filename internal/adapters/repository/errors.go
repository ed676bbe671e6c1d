package repository

import "errors"

// Sentinel kinds for beatmap errors.
var (
	ErrLoad         = errors.New("beatmap load failed")
	ErrInvalidEvent = errors.New("invalid beatmap event")
)

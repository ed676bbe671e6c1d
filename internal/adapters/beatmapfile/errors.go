package beatmapfile

import "errors"

// Sentinel kinds for beatmap file errors.
var (
	ErrNotFound      = errors.New("beatmap file not found")
	ErrDecode        = errors.New("beatmap decode failed")
	ErrInvalidRecord = errors.New("invalid beatmap record")
)

package scoring

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrDuplicate   = errors.New("fire notice already applied")
	ErrInvalidFire = errors.New("fire notice has no id")
)

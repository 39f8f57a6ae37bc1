package models

import "errors"

// Sentinel errors for configuration and selection handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidSelection indicates a selection outside the configured items,
	// either an unknown set or an index out of range for its set.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrInvalidConfiguration indicates a widget configuration that cannot be
	// used, such as a link endpoint outside its set or an opacity outside [0,1].
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

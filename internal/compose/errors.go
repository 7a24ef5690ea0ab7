package compose

import "errors"

// Structural errors surfaced synchronously, before any network attempt.
var (
	ErrEmptyContent     = errors.New("content is empty")
	ErrInvalidKind      = errors.New("kind not supported by composer")
	ErrMissingReference = errors.New("missing event reference")
)

package types

import "errors"

// Domain errors
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid search request")

	// Client errors
	ErrMissingPhone = errors.New("phone is required")
	ErrInvalidPhone = errors.New("phone must be an optional '+' followed by digits")

	// ErrStoreUnavailable is returned when the client store could not be
	// queried. It is never reported as a missing client.
	ErrStoreUnavailable = errors.New("client store unavailable")
)

package domain

import "errors"

var (
	// ErrBackendUnavailable wraps transport-level failures talking to the
	// directory service (network errors, non-2xx/404 statuses).
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidPayload marks a backend response that decoded but failed
	// record validation at the client boundary.
	ErrInvalidPayload = errors.New("invalid backend payload")
)

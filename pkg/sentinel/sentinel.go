package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these, optionally
// wrapped, so usecases and the HTTP layer can branch with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidInput   = errors.New("invalid input")
	ErrFlightMismatch = errors.New("flight mismatch")
	ErrUnavailable    = errors.New("unavailable")
)

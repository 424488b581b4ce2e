package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrMissing    = errors.New("missing field")
	ErrPanic      = errors.New("handler panicked")
)

package api

import "errors"

// Sentinel errors for the api package.
var (
	// ErrUnavailable is returned when the API server cannot be reached.
	ErrUnavailable = errors.New("api server unavailable")

	// ErrProfileNotFound is returned when no profile exists for a username.
	ErrProfileNotFound = errors.New("profile not found")
)

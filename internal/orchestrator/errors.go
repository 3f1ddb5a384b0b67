package orchestrator

import "errors"

// Sentinel errors for the orchestrator package.
var (
	// ErrEmptyTarget is returned when the request target is empty or
	// whitespace. No network request is made in that case.
	ErrEmptyTarget = errors.New("target must not be empty")

	// ErrAllFetchesFailed is returned when every media fetch of a non-empty
	// URL list failed. Partial failure is not an error; total failure is.
	ErrAllFetchesFailed = errors.New("could not download any files")
)

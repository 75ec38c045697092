package app

import "errors"

// Typed errors for the meal plan app layer. All of them surface to the caller
// as a generic retry-later failure; the distinction is for logging and tests.
var (
	// ErrEmptyCompletion indicates the completion service returned no content.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrMalformedCompletion indicates the completion text did not parse or
	// validate as a weekly plan.
	ErrMalformedCompletion = errors.New("malformed completion")
	// ErrUpstream indicates the completion API was unreachable or errored.
	ErrUpstream = errors.New("completion service error")
)

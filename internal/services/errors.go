package services

import "errors"

// Error taxonomy for the matching engine. Callers classify with errors.Is;
// causes are attached with fmt.Errorf and %w where they add detail.
var (
	// ErrInvalidInput marks a caller precondition violation. Not retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed means the extraction service returned data the
	// engine could not use. The caller decides whether to retry.
	ErrExtractionFailed = errors.New("resume extraction failed")

	// ErrProfileMissing means the candidate has no extracted profile yet.
	ErrProfileMissing = errors.New("candidate profile missing")

	// ErrMatchingFailed aggregates catalog or scoring failures inside a
	// matching run.
	ErrMatchingFailed = errors.New("job matching failed")
)

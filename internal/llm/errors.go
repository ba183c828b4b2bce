package llm

import "errors"

var (
	// ErrNotConfigured indicates no API key is set. It is returned before
	// any network call is attempted.
	ErrNotConfigured = errors.New("llm api key not configured")

	// ErrUpstream indicates the completion or transcription service failed,
	// returned a non-2xx status, or returned no content.
	ErrUpstream = errors.New("llm upstream failure")

	// ErrTimeout indicates the request exceeded the configured timeout.
	// It is always wrapped together with ErrUpstream.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")
)

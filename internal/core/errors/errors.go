// Package errors provides centralized error definitions for the application.
// Errors are organized by concern to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors.
var (
	// ErrMissingCredential indicates a credential required by the selected stage is not set.
	ErrMissingCredential = errors.New("missing required credential")

	// ErrUnknownSource indicates a source name that no fetcher handles.
	ErrUnknownSource = errors.New("unknown source")

	// ErrInvalidWeek indicates a malformed ISO week string.
	ErrInvalidWeek = errors.New("invalid week, expected YYYY-WNN")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse indicates a response that does not decode into the expected structure.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrHTTPStatusNotOK indicates an HTTP response with a non-200 status code.
	ErrHTTPStatusNotOK = errors.New("HTTP status not OK")
)

// Content extraction errors.
var (
	// ErrEmptyContent indicates extraction produced no usable text.
	ErrEmptyContent = errors.New("empty extracted content")

	// ErrUnsupportedURL indicates the URL does not match what the extractor expects.
	ErrUnsupportedURL = errors.New("unsupported url")
)

// Storage errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrLedgerDisabled indicates the PostgreSQL ledger is not configured.
	ErrLedgerDisabled = errors.New("ledger disabled")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Package errors provides the structured error type used across vidscribe.
//
// AppError carries a machine-readable code, an HTTP status, a retryable flag
// and free-form details. Lower layers wrap with fmt.Errorf; provider and
// pipeline boundaries convert to AppError so the HTTP layer can render
// RFC 7807 style bodies.
package errors

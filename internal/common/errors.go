// Package common defines shared constants and sentinel errors used across
// labcms packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login errors.
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("admin access required")

	// Token errors. The gate collapses both into a single deny outcome.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Configuration errors; fatal at startup.
	ErrMissingSecret = errors.New("signing secret is not configured")

	// Document and upload errors.
	ErrUnknownCollection = errors.New("unknown collection")
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)

// DetailError carries a client-facing message while still matching its
// sentinel with errors.Is.
type DetailError struct {
	Err error
	Msg string
}

func (e *DetailError) Error() string { return e.Msg }

func (e *DetailError) Unwrap() error { return e.Err }

// WithDetail wraps a sentinel with a message meant for the API response.
func WithDetail(sentinel error, msg string) error {
	return &DetailError{Err: sentinel, Msg: msg}
}

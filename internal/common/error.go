// Package common defines shared constants and sentinel errors used across
// the jumptrack server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors. Malformed, tampered and expired tokens all collapse to
	// ErrInvalidToken so callers cannot probe which check failed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUpstreamUnavailable marks a provider key fetch failure with no
	// usable cached key set. Transient; callers may retry.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
)

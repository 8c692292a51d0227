// Package common defines shared constants and sentinel errors used across
// server and CLI layers of runbase. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Account errors.
	ErrorEmailTaken         = errors.New("email already in use")
	ErrorInactiveUser       = errors.New("user account is disabled")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorPasswordMismatch   = errors.New("password mismatch")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

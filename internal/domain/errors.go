package domain

import "errors"

var (
	// ErrInvalidArgument reports malformed configuration or an unrecognized
	// token. Rejected before any resource is allocated.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports an operation against an unknown or already
	// stopped fork.
	ErrNotFound = errors.New("not found")

	// ErrResourceExhausted reports a call-leg attachment failure.
	ErrResourceExhausted = errors.New("resource exhausted")
)

package app

import "errors"

// Typed errors for the profile app layer. These enable HTTP mapping without
// leaking storage or SDK error types into the transport layer.
var (
	// ErrNoEmail indicates the identity provider has no usable email for the user.
	ErrNoEmail = errors.New("no email address")
	// ErrIdentity indicates the identity provider lookup failed.
	ErrIdentity = errors.New("identity provider error")
	// ErrDatabase indicates a database-related failure.
	ErrDatabase = errors.New("database error")
	// ErrProfileNotFound indicates no profile row exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
)

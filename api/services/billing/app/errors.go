package app

import "errors"

// Typed errors for the billing app layer. These enable HTTP mapping without
// relying on SDK-specific error types at the transport layer.
var (
	// ErrBadEvent indicates the incoming event payload is invalid or cannot be decoded.
	ErrBadEvent = errors.New("bad event")
	// ErrDatabase indicates a database-related failure.
	ErrDatabase = errors.New("database error")
	// ErrGateway indicates a failure from the Stripe gateway / API calls.
	ErrGateway = errors.New("gateway error")
	// ErrUnknownPlan indicates the requested plan interval is not in the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrNoSubscription indicates the profile has no linked subscription to operate on.
	ErrNoSubscription = errors.New("no active subscription")
)

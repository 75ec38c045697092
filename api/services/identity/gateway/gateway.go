package gateway

import "context"

// User is the subset of the identity provider's user record needed here.
type User struct {
	ID    string
	Email string
}

// IdentityGateway abstracts the identity provider's management API.
// Methods return values (not pointers) to respect the project's preference
// to avoid pointer types in public interfaces.
type IdentityGateway interface {
	GetUser(ctx context.Context, userID string) (User, error)
}

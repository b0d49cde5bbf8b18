package resolver

import (
	"context"
	"errors"

	"webauth/internal/auth"
)

var ErrUserNotFound = errors.New("user not found")

// User is the internal account for a verified email address.
type User struct {
	ID      int64
	Email   string
	Picture string
}

// Resolver determines which internal user an external identity belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	// Resolve looks the user up by email and creates it on first login.
	// An existing user is returned unchanged.
	Resolve(ctx context.Context, claims *auth.Claims) (*User, error)

	UserByID(ctx context.Context, id int64) (*User, error)
}

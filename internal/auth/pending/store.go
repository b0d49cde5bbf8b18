// Package pending holds the CSRF/PKCE state that lives between the
// redirect to the identity provider and its return.
package pending

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for unknown, already consumed or expired tokens.
	ErrNotFound  = errors.New("pending authorization not found")
	ErrDuplicate = errors.New("pending authorization already exists")
)

// Authorization is created at login start and consumed exactly once at
// login return. It is never updated.
type Authorization struct {
	CSRFToken    string
	PKCEVerifier string
	ReturnURL    string
	CreatedAt    time.Time
}

// Store persists pending authorizations.
type Store interface {
	Create(ctx context.Context, a Authorization) error

	// Consume looks up and deletes the record in one atomic step.
	// Concurrent calls with the same token see exactly one success.
	Consume(ctx context.Context, csrfToken string) (*Authorization, error)

	// Prune deletes records created before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

func validate(a Authorization) error {
	if a.CSRFToken == "" || a.PKCEVerifier == "" {
		return errors.New("pending: missing csrf token or pkce verifier")
	}
	if a.CreatedAt.IsZero() {
		return errors.New("pending: missing created_at")
	}
	return nil
}

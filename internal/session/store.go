package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session: not found")

// Record is a persisted session. ExpiresAt is fixed at creation and
// never extended.
type Record struct {
	LookupKey string
	Secret    string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is inert at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, r Record) error
	// Lookup returns ErrNotFound when no record has the lookup key.
	Lookup(ctx context.Context, lookupKey string) (*Record, error)
	Delete(ctx context.Context, lookupKey string) error
	// Prune deletes sessions with expires_at <= now.
	Prune(ctx context.Context, now time.Time) (int64, error)
}

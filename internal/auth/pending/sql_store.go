package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"webauth/internal/db"
)

// SQLStore keeps pending authorizations in the relational store.
type SQLStore struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLStore(db *db.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) Create(ctx context.Context, a Authorization) error {
	if err := validate(a); err != nil {
		return err
	}

	// ON CONFLICT keeps the first record; a zero row count means the
	// token was already live.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_authorizations (csrf_token, pkce_verifier, return_url, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (csrf_token) DO NOTHING
	`, a.CSRFToken, a.PKCEVerifier, a.ReturnURL, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("pending: insert: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pending: insert: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}

	return nil
}

func (s *SQLStore) Consume(ctx context.Context, csrfToken string) (*Authorization, error) {
	a := Authorization{CSRFToken: csrfToken}
	var createdAt int64

	err := s.db.QueryRowContext(ctx, `
		DELETE FROM pending_authorizations
		WHERE csrf_token = $1
		RETURNING pkce_verifier, return_url, created_at
	`, csrfToken).Scan(&a.PKCEVerifier, &a.ReturnURL, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending: consume: %w", err)
	}

	a.CreatedAt = time.Unix(createdAt, 0)
	if s.now().Sub(a.CreatedAt) > s.ttl {
		return nil, ErrNotFound
	}

	return &a, nil
}

func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM pending_authorizations WHERE created_at < $1
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("pending: prune: %w", err)
	}
	return res.RowsAffected()
}

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"webauth/internal/db"
)

type SQLStore struct {
	db *db.DB
}

func NewSQLStore(db *db.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, r Record) error {
	if r.LookupKey == "" || r.Secret == "" || r.UserID == 0 {
		return fmt.Errorf("session: missing lookup key, secret or user id")
	}
	if !r.ExpiresAt.After(r.CreatedAt) {
		return fmt.Errorf("session: expires_at must be after created_at")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token_part_a, token_part_b, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.LookupKey, r.Secret, r.UserID, r.CreatedAt.Unix(), r.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("session: insert: %w", err)
	}

	return nil
}

func (s *SQLStore) Lookup(ctx context.Context, lookupKey string) (*Record, error) {
	var (
		rec       = Record{LookupKey: lookupKey}
		createdAt int64
		expiresAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, created_at, expires_at, token_part_b
		FROM sessions
		WHERE token_part_a = $1
	`, lookupKey).Scan(&rec.UserID, &createdAt, &expiresAt, &rec.Secret)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: lookup: %w", err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.ExpiresAt = time.Unix(expiresAt, 0)
	return &rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, lookupKey string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE token_part_a = $1
	`, lookupKey)
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *SQLStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= $1
	`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	return res.RowsAffected()
}

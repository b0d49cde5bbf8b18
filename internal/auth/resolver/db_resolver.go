package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"webauth/internal/auth"
	"webauth/internal/db"
)

// DBResolver resolves identities using the users table.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	claims *auth.Claims,
) (*User, error) {

	if claims == nil || claims.Email == "" {
		return nil, errors.New("resolver: claims missing email")
	}

	// 1. Create if absent. ON CONFLICT DO NOTHING returns no row for an
	// existing email, so a concurrent first login cannot create a twin.
	user := User{Email: claims.Email, Picture: claims.Picture}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, picture)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`,
		claims.Email,
		claims.Picture,
	).Scan(&user.ID)

	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolver: insert user: %w", err)
	}

	// 2. Existing user: lookup only, the stored picture is kept.
	err = r.db.QueryRowContext(ctx, `
		SELECT id, email, picture
		FROM users
		WHERE email = $1
	`,
		claims.Email,
	).Scan(&user.ID, &user.Email, &user.Picture)

	if err != nil {
		return nil, fmt.Errorf("resolver: select user by email: %w", err)
	}

	return &user, nil
}

func (r *DBResolver) UserByID(ctx context.Context, id int64) (*User, error) {
	user := User{ID: id}

	err := r.db.QueryRowContext(ctx, `
		SELECT email, picture
		FROM users
		WHERE id = $1
	`, id).Scan(&user.Email, &user.Picture)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: select user by id: %w", err)
	}

	return &user, nil
}

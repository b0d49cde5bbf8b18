package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webauth/internal/db"
	"webauth/internal/db/dbtest"
	"webauth/internal/session"
)

func insertUser(t *testing.T, d *db.DB, email string) int64 {
	t.Helper()

	var id int64
	err := d.QueryRowContext(context.Background(),
		`INSERT INTO users (email, picture) VALUES ($1, $2) RETURNING id`,
		email, "http://x/p.png",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func newRecord(t *testing.T, userID int64, createdAt time.Time, ttl time.Duration) session.Record {
	t.Helper()

	tok, err := session.NewToken()
	require.NoError(t, err)

	return session.Record{
		LookupKey: tok.Lookup,
		Secret:    tok.Secret,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
}

func TestSQLStoreCreateLookupDelete(t *testing.T) {
	ctx := context.Background()
	d := dbtest.New(t)
	store := session.NewSQLStore(d)
	userID := insertUser(t, d, "a@example.com")

	now := time.Unix(1_700_000_000, 0)
	rec := newRecord(t, userID, now, 24*time.Hour)
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Lookup(ctx, rec.LookupKey)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, rec.Secret, got.Secret)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, rec.LookupKey))

	_, err = store.Lookup(ctx, rec.LookupKey)
	require.ErrorIs(t, err, session.ErrNotFound)

	// deleting again is not an error
	require.NoError(t, store.Delete(ctx, rec.LookupKey))
}

func TestSQLStoreCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := session.NewSQLStore(dbtest.New(t))
	now := time.Now()

	err := store.Create(ctx, session.Record{LookupKey: "a", Secret: "b", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.Error(t, err)

	err = store.Create(ctx, session.Record{LookupKey: "a", Secret: "b", UserID: 1, CreatedAt: now, ExpiresAt: now})
	require.Error(t, err)
}

func TestSQLStoreTwoSessionsSameUser(t *testing.T) {
	ctx := context.Background()
	d := dbtest.New(t)
	store := session.NewSQLStore(d)
	userID := insertUser(t, d, "a@example.com")
	now := time.Now()

	first := newRecord(t, userID, now, time.Hour)
	second := newRecord(t, userID, now, time.Hour)
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	assert.Equal(t, 2, dbtest.Count(t, d, "sessions"))
}

func TestSQLStorePrune(t *testing.T) {
	ctx := context.Background()
	d := dbtest.New(t)
	store := session.NewSQLStore(d)
	userID := insertUser(t, d, "a@example.com")

	now := time.Unix(1_700_000_000, 0)
	expired := newRecord(t, userID, now.Add(-2*time.Hour), time.Hour)
	boundary := newRecord(t, userID, now.Add(-time.Hour), time.Hour)
	live := newRecord(t, userID, now, time.Hour)

	for _, r := range []session.Record{expired, boundary, live} {
		require.NoError(t, store.Create(ctx, r))
	}

	n, err := store.Prune(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Lookup(ctx, live.LookupKey)
	require.NoError(t, err)
	_, err = store.Lookup(ctx, boundary.LookupKey)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestRecordExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rec := session.Record{ExpiresAt: now}

	assert.True(t, rec.Expired(now))
	assert.True(t, rec.Expired(now.Add(time.Second)))
	assert.False(t, rec.Expired(now.Add(-time.Second)))
}

package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending authorizations as Redis keys that expire on
// their own after the TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type storedAuthorization struct {
	PKCEVerifier string `json:"pkce_verifier"`
	ReturnURL    string `json:"return_url"`
	CreatedAt    int64  `json:"created_at"`
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "oauth_state:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(csrfToken string) string {
	return r.prefix + csrfToken
}

func (r *RedisStore) Create(ctx context.Context, a Authorization) error {
	if err := validate(a); err != nil {
		return err
	}

	data, err := json.Marshal(storedAuthorization{
		PKCEVerifier: a.PKCEVerifier,
		ReturnURL:    a.ReturnURL,
		CreatedAt:    a.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("pending: marshal: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(a.CSRFToken), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("pending: set: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}

	return nil
}

func (r *RedisStore) Consume(ctx context.Context, csrfToken string) (*Authorization, error) {
	val, err := r.client.GetDel(ctx, r.key(csrfToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending: getdel: %w", err)
	}

	var stored storedAuthorization
	if err := json.Unmarshal(val, &stored); err != nil {
		return nil, fmt.Errorf("pending: unmarshal: %w", err)
	}

	return &Authorization{
		CSRFToken:    csrfToken,
		PKCEVerifier: stored.PKCEVerifier,
		ReturnURL:    stored.ReturnURL,
		CreatedAt:    time.Unix(stored.CreatedAt, 0),
	}, nil
}

// Prune is a no-op: keys carry their own TTL.
func (r *RedisStore) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

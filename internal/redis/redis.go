package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/redis/go-redis/v9"

	"webauth/internal/logger"
)

type Client struct {
	*goredis.Client
}

// New connects to Redis and waits up to maxWait for it to answer PING.
func New(ctx context.Context, addr, password string, maxWait time.Duration) (*Client, error) {

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	_, err := backoff.Retry(ctx, func() (string, error) {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			logger.Warn("redis not ready", map[string]any{
				"addr":  addr,
				"error": err,
			})
		}
		return pong, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxWait),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	return &Client{Client: client}, nil

}

package app

import (
	"context"
	"time"

	"webauth/internal/auth/pending"
	"webauth/internal/config"
	"webauth/internal/db"
	"webauth/internal/logger"
	"webauth/internal/redis"
	"webauth/internal/session"
)

// startupWait bounds how long we wait for the database and Redis.
const startupWait = 30 * time.Second

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, startupWait)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("database ready", map[string]any{
		"driver": cfg.DatabaseDriver,
	})

	infra := &Infra{DB: database}

	if cfg.PendingStore == config.PendingStoreRedis {
		redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword, startupWait)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		infra.Redis = redisClient

		logger.Info("redis ready", map[string]any{
			"addr": cfg.RedisAddr,
		})
	}

	return infra, nil
}

// pendingStore picks the configured backend for pending authorizations.
func (i *Infra) pendingStore(ttl time.Duration) pending.Store {
	if i.Redis != nil {
		return pending.NewRedisStore(i.Redis.Client, ttl)
	}
	return pending.NewSQLStore(i.DB, ttl)
}

func (i *Infra) sessionStore() session.Store {
	return session.NewSQLStore(i.DB)
}

func (i *Infra) Close() error {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Warn("redis close failed", map[string]any{"error": err})
		}
	}
	return i.DB.Close()
}

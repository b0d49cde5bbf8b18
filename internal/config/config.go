package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	PendingStoreDatabase = "database"
	PendingStoreRedis    = "redis"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseDSN    string `env:"DATABASE_URL,required,notEmpty"`

	PendingStore  string `env:"PENDING_STORE" envDefault:"database"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	PendingTTL      time.Duration `env:"PENDING_TTL" envDefault:"10m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	// CookieConfirmHop routes the post-login redirect through /cookies so
	// the SameSite=Strict cookie is present on the next navigation.
	CookieConfirmHop bool `env:"COOKIE_CONFIRM_HOP" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.PendingStore {
	case PendingStoreDatabase, PendingStoreRedis:
	default:
		return fmt.Errorf("config: unsupported PENDING_STORE %q", c.PendingStore)
	}

	if c.SessionTTL <= 0 || c.PendingTTL <= 0 {
		return errors.New("config: SESSION_TTL and PENDING_TTL must be positive")
	}
	if c.SweepInterval <= 0 || c.ProviderTimeout <= 0 {
		return errors.New("config: SWEEP_INTERVAL and PROVIDER_TIMEOUT must be positive")
	}

	return nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Workers  int    `env:"WORKERS,   default=8"`

	Telegram TelegramConfig
	Backend  BackendConfig
	Session  SessionConfig
	Redis    RedisConfig
	Ops      OpsConfig
}

type TelegramConfig struct {
	Token       string `env:"BOT_TOKEN, required"`
	PollTimeout int    `env:"POLL_TIMEOUT_SECONDS, default=30"`
}

type BackendConfig struct {
	URL       string        `env:"API_URL, required"`
	JWTSecret string        `env:"API_JWT_SECRET"`
	Timeout   time.Duration `env:"API_TIMEOUT, default=15s"`
}

// SessionConfig selects the session store. Store is "memory" or "redis";
// TTL only applies to the redis store.
type SessionConfig struct {
	Store string        `env:"SESSION_STORE, default=memory"`
	TTL   time.Duration `env:"SESSION_TTL,   default=24h"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type OpsConfig struct {
	Port string `env:"OPS_PORT, default=8080"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Session.Store != "memory" && cfg.Session.Store != "redis" {
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.Session.Store)
	}
	return &cfg, nil
}

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

	API       APIConfig
	Bootstrap BootstrapConfig
	Store     StoreConfig
	Diag      DiagConfig
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=https://api.sahafa.app/v1"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=15s"`
}

// BootstrapConfig mirrors the bootstrap timer contract: the ceiling bounds
// the whole attempt, the batch timeout bounds the preload join, and the
// splash delay keeps the loading screen from flickering.
type BootstrapConfig struct {
	Ceiling      time.Duration `env:"BOOTSTRAP_CEILING,       default=10s"`
	BatchTimeout time.Duration `env:"BOOTSTRAP_BATCH_TIMEOUT, default=8s"`
	MinSplash    time.Duration `env:"BOOTSTRAP_MIN_SPLASH,    default=1s"`
}

type StoreConfig struct {
	// Backend selects the DurableStore implementation: "file" or "redis".
	Backend string `env:"STORE_BACKEND, default=file"`
	Path    string `env:"STORE_PATH,    default=appcore-session.json"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Prefix string `env:"REDIS_PREFIX, default=appcore:session:"`
}

type DiagConfig struct {
	Enabled bool   `env:"DIAG_ENABLED, default=false"`
	Addr    string `env:"DIAG_ADDR,    default=:6060"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 10*time.Second, cfg.Bootstrap.Ceiling)
	require.Equal(t, 8*time.Second, cfg.Bootstrap.BatchTimeout)
	require.Equal(t, time.Second, cfg.Bootstrap.MinSplash)
	require.Equal(t, "file", cfg.Store.Backend)
	require.False(t, cfg.Diag.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("API_BASE_URL", "https://staging.sahafa.app/v1")
	t.Setenv("BOOTSTRAP_CEILING", "3s")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("DIAG_ENABLED", "true")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Env)
	require.Equal(t, "https://staging.sahafa.app/v1", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Bootstrap.Ceiling)
	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, "redis.internal:6379", cfg.Store.Redis.Addr)
	require.True(t, cfg.Diag.Enabled)
}

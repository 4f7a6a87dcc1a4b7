package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "file:test?mode=memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
	assert.Equal(t, "@every 5m", cfg.SweeperCron)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KAFKA_BROKERS=a:9092,b:9092\nPENDING_TTL=45m\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("PENDING_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 45*time.Minute, cfg.PendingTTL)
}

func TestProdRequiresSecret(t *testing.T) {
	cfg := &Config{
		AppEnv:          "prod",
		DatabaseURL:     "postgres://db",
		JWTSecret:       defaultJWTSecret,
		JWTTTL:          time.Hour,
		VenueCacheTTL:   time.Minute,
		PendingTTL:      time.Minute,
		ShutdownTimeout: time.Second,
		SweeperCron:     "@every 1m",
	}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

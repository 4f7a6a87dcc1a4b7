package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"local"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"courtbook.db"`

	JWTSecret        string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL           time.Duration `envconfig:"JWT_TTL" default:"24h"`
	TenantBaseDomain string        `envconfig:"TENANT_BASE_DOMAIN" default:"localhost"`

	RedisURL      string        `envconfig:"REDIS_URL"`
	VenueCacheTTL time.Duration `envconfig:"VENUE_CACHE_TTL" default:"10m"`

	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaBookingTopic string   `envconfig:"KAFKA_BOOKING_TOPIC" default:"booking-events"`

	SweeperCron string        `envconfig:"SWEEPER_CRON" default:"@every 5m"`
	PendingTTL  time.Duration `envconfig:"PENDING_TTL" default:"30m"`

	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if c.VenueCacheTTL <= 0 {
		return errors.New("VENUE_CACHE_TTL must be > 0")
	}
	if c.PendingTTL <= 0 {
		return errors.New("PENDING_TTL must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.SweeperCron) == "" {
		return errors.New("SWEEPER_CRON must not be empty")
	}
	if c.IsProdLike() && isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
		return errors.New("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

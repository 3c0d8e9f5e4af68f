package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"25s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	PGDSN         string `envconfig:"PG_DSN" required:"true"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	DashboardCacheTTL  time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"10m"`
	TenantSelectionTTL time.Duration `envconfig:"TENANT_SELECTION_TTL" default:"720h"`

	AuthUserHeader string `envconfig:"AUTH_USER_HEADER" default:"X-Authenticated-User"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:""`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
	WarmupCron        string `envconfig:"DASHBOARD_WARMUP_CRON" default:"*/30 * * * *"`
}

// LoadConfig reads configuration from environment variables. A .env file in the
// working directory is loaded first without overriding variables already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.PGDSN) == "" {
		return errors.New("PG_DSN must be provided")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.DashboardCacheTTL <= 0 {
		return errors.New("DASHBOARD_CACHE_TTL must be positive")
	}
	if strings.TrimSpace(c.AuthUserHeader) == "" {
		return errors.New("AUTH_USER_HEADER must not be empty")
	}
	switch c.LogFormat {
	case "json", "pretty", "text":
	default:
		return fmt.Errorf("LOG_FORMAT %q not supported", c.LogFormat)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

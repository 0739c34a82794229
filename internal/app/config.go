package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"60s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SupabaseURL string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseKey string `envconfig:"SUPABASE_SERVICE_KEY" required:"true"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"30m"`

	GetinBaseURL string `envconfig:"GETIN_BASE_URL" default:"http://127.0.0.1:3001/api/dashboard"`
	CRMBaseURL   string `envconfig:"CRM_BASE_URL" default:"http://127.0.0.1:3001/api"`

	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	FetchPageSize int           `envconfig:"FETCH_PAGE_SIZE" default:"1000"`

	WarmupBarID        int64 `envconfig:"WARMUP_BAR_ID" default:"3"`
	WarmupLookbackDays int   `envconfig:"WARMUP_LOOKBACK_DAYS" default:"45"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("supabase url and service key must be provided")
	}
	if cfg.FetchPageSize <= 0 {
		cfg.FetchPageSize = 1000
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

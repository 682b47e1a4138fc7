package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every externally influenced setting. Values come from the
// environment with sane defaults; CLI flags may override individual fields.
type Config struct {
	Addr string `env:"TENANCY_ADDR" envDefault:":8080"`

	MainDomain    string `env:"TENANCY_MAIN_DOMAIN" envDefault:"localhost"`
	AccountingURL string `env:"TENANCY_ACCOUNTING_URL"`

	RegistryTimeout   time.Duration `env:"TENANCY_REGISTRY_TIMEOUT" envDefault:"30s"`
	RegistryTLSVerify bool          `env:"TENANCY_REGISTRY_TLS_VERIFY" envDefault:"false"`
	CacheEnabled      bool          `env:"TENANCY_CACHE_ENABLED" envDefault:"true"`
	CacheTTL          time.Duration `env:"TENANCY_CACHE_TTL" envDefault:"60s"`

	StorageRoot string `env:"TENANCY_STORAGE_ROOT" envDefault:"./storage"`
	LogRoot     string `env:"TENANCY_LOG_ROOT" envDefault:"./storage/logs"`
	LogLevel    string `env:"TENANCY_LOG_LEVEL" envDefault:"info"`

	// RedisAddr enables the shared keyed store: descriptor caching moves
	// to redis and sessions bind to the tenant's numbered partition.
	RedisAddr     string `env:"TENANCY_REDIS_ADDR"`
	SessionDriver string `env:"TENANCY_SESSION_DRIVER" envDefault:"file"`

	WelcomeWebhookURL    string `env:"TENANCY_WELCOME_WEBHOOK_URL"`
	WelcomeWebhookSecret string `env:"TENANCY_WELCOME_WEBHOOK_SECRET"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

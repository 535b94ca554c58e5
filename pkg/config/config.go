package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "PALLETSPACES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payment      PaymentConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PALLETSPACES_APP_ENV" required:"true"`
	Port         string `envconfig:"PALLETSPACES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PALLETSPACES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PALLETSPACES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ServerConfig carries the externally visible base URL used when building
// checkout success/cancel links and onboarding return/refresh links.
type ServerConfig struct {
	BaseURL string `envconfig:"PALLETSPACES_BASE_URL" default:"http://127.0.0.1:8080"`
}

type DBConfig struct {
	DSN    string `envconfig:"PALLETSPACES_DB_DSN" required:"true"`
	Driver string `envconfig:"PALLETSPACES_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"PALLETSPACES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PALLETSPACES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PALLETSPACES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PALLETSPACES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PALLETSPACES_REDIS_URL"`
	Address      string        `envconfig:"PALLETSPACES_REDIS_ADDR"`
	Password     string        `envconfig:"PALLETSPACES_REDIS_PASSWORD"`
	DB           int           `envconfig:"PALLETSPACES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PALLETSPACES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PALLETSPACES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PALLETSPACES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PALLETSPACES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PALLETSPACES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PALLETSPACES_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PALLETSPACES_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PALLETSPACES_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig throttles the unauthenticated surface per client IP.
// A zero limit or window disables the middleware.
type RateLimitConfig struct {
	PublicLimit  int           `envconfig:"PALLETSPACES_RATE_LIMIT_PUBLIC" default:"120"`
	PublicWindow time.Duration `envconfig:"PALLETSPACES_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PALLETSPACES_AUTO_MIGRATE" default:"false"`
}

// PaymentConfig selects and configures the checkout/payout gateway. When
// Enabled is false (or the API key is absent) the stub gateway is wired at
// startup and every session attempt degrades to the pending flow.
type PaymentConfig struct {
	Enabled        bool          `envconfig:"PALLETSPACES_PAYMENT_ENABLED" default:"false"`
	APIKey         string        `envconfig:"PALLETSPACES_PAYMENT_API_KEY"`
	WebhookSecret  string        `envconfig:"PALLETSPACES_PAYMENT_WEBHOOK_SECRET"`
	Env            string        `envconfig:"PALLETSPACES_PAYMENT_ENV" default:"test"`
	RequestTimeout time.Duration `envconfig:"PALLETSPACES_PAYMENT_REQUEST_TIMEOUT" default:"10s"`
}

// Environment returns the normalized gateway environment (test/live).
func (p PaymentConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
}

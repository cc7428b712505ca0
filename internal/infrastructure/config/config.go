package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// MinSecretLength is the shortest accepted HS256 signing secret, in bytes.
const MinSecretLength = 32

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT       JWTConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Hasher    HasherConfig
	Throttle  ThrottleConfig
	RateLimit RateLimitConfig
}

// JWTConfig is the token signing configuration. The lifetime is fixed at 24h
// and deliberately not configurable.
type JWTConfig struct {
	Secret   string `env:"JWT_SECRET"`
	Issuer   string `env:"JWT_ISSUER,   default=postly-api"`
	Audience string `env:"JWT_AUDIENCE, default=postly-clients"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=postly"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// HasherConfig sizes the worker pool that runs password derivations.
// Each in-flight derivation holds 512 MiB, so Workers bounds peak memory.
type HasherConfig struct {
	Workers int `env:"HASH_WORKERS, default=2"`
}

// ThrottleConfig limits failed logins per username. MaxFailures <= 0 disables
// the throttle.
type ThrottleConfig struct {
	MaxFailures int           `env:"LOGIN_MAX_FAILURES,   default=5"`
	Window      time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`
}

// RateLimitConfig is the per-IP request rate applied to the login and
// registration routes.
type RateLimitConfig struct {
	PerSecond float64 `env:"AUTH_RATE_PER_SECOND, default=5"`
	Burst     int     `env:"AUTH_RATE_BURST,      default=10"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		errs = append(errs, errors.New("JWT_ISSUER and JWT_AUDIENCE must be set"))
	}
	if c.Hasher.Workers < 1 {
		errs = append(errs, errors.New("HASH_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig and
// panics when it is missing or invalid.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// LoadFrom is Load with an explicit source, returning errors instead of
// panicking.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadMongo reads only the Mongo section, for tools that do not serve HTTP
// and therefore need no signing secret.
func LoadMongo(ctx context.Context, lookuper envconfig.Lookuper) (MongoConfig, error) {
	var cfg MongoConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return MongoConfig{}, fmt.Errorf("failed to load mongo configuration: %w", err)
	}
	return cfg, nil
}

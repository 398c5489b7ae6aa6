package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/coffee-shop/internal/storage/postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (COFFEE_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (COFFEE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	JWT           JWTConfig
	Database      DatabaseConfig
	RateLimit     RateLimitConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// JWTConfig controls bearer token signing.
type JWTConfig struct {
	Secret string        `usage:"HMAC secret for signing tokens (COFFEE_JWT_SECRET or JWT_SECRET)" flag:"jwt-secret"`
	TTL    time.Duration `default:"24h" usage:"Token lifetime" flag:"jwt-ttl"`
}

// DatabaseConfig tunes the PostgreSQL connection pool.
type DatabaseConfig struct {
	MaxConns         int32         `default:"20" usage:"Maximum pool connections" flag:"db-max-conns"`
	MinConns         int32         `default:"2"  usage:"Minimum idle pool connections" flag:"db-min-conns"`
	MaxConnLifetime  time.Duration `default:"1h" usage:"Maximum connection lifetime" flag:"db-max-conn-lifetime"`
	MaxConnIdleTime  time.Duration `default:"30s" usage:"Idle time before a connection is closed" flag:"db-max-conn-idle-time"`
	StatementTimeout time.Duration `default:"10s" usage:"Per-statement timeout" flag:"db-statement-timeout"`
	MaxPoolUsage     float64       `default:"0.9" usage:"Pool saturation ratio that fails readiness" flag:"db-max-pool-usage"`
}

// Pool converts the settings for postgres.NewPool.
func (c DatabaseConfig) Pool() postgres.PoolConfig {
	return postgres.PoolConfig{
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		StatementTimeout: c.StatementTimeout,
	}
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"15m" usage:"Rate limit window duration"`
}

// AuthRateLimitConfig throttles the register and login routes.
type AuthRateLimitConfig struct {
	Max    int           `default:"5"   usage:"Max auth attempts per window"`
	Window time.Duration `default:"15m" usage:"Auth rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "COFFEE",
		Files:     []string{"config.yaml", "/etc/coffee/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set COFFEE_DATABASE_URL or DATABASE_URL")
	case c.JWT.Secret == "":
		return errors.New("JWT secret is required: set COFFEE_JWT_SECRET or JWT_SECRET")
	case c.Database.MaxPoolUsage <= 0 || c.Database.MaxPoolUsage > 1:
		return errors.Errorf("pool usage ratio %v out of range (0, 1]", c.Database.MaxPoolUsage)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the COFFEE_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = os.Getenv("JWT_SECRET")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

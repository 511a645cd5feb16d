// Package config holds the storefront service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/hienohelma/storefront/pkg/config"
	"github.com/hienohelma/storefront/pkg/database"
	"github.com/hienohelma/storefront/pkg/httpclient"
	"github.com/hienohelma/storefront/pkg/middleware"
	"github.com/hienohelma/storefront/pkg/tracing"
)

// ServiceName is the name reported in logs, metrics and traces.
const ServiceName = "storefront"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Carts expire after this many hours without a write (default: 7 days).
	CartTTLHours   int           `env:"CART_TTL_HOURS" envDefault:"168"`
	CartMaxItems   int           `env:"CART_MAX_ITEMS" envDefault:"50"`
	CartMaxQty     int           `env:"CART_MAX_QUANTITY" envDefault:"100"`
	StoreConfigTTL time.Duration `env:"STORE_CONFIG_TTL" envDefault:"5m"`

	// PostgreSQL. DATABASE_URL wins over the discrete fields.
	DatabaseURL      string `env:"DATABASE_URL" envDefault:""`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Storefront API
	StorefrontURL     string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:3000"`
	StorefrontAPIKey  string        `env:"STOREFRONT_API_KEY" envDefault:""`
	StorefrontTimeout time.Duration `env:"STOREFRONT_API_TIMEOUT" envDefault:"10s"`
	StorefrontRetries int           `env:"STOREFRONT_API_RETRIES" envDefault:"2"`
	// WebhookKey authenticates storefront callbacks such as campaign cache refreshes.
	WebhookKey string `env:"STORE_WEBHOOK_KEY" envDefault:""`

	// CampaignsFile is a YAML store configuration used when the storefront API
	// cannot be reached. Empty disables the fallback.
	CampaignsFile string `env:"CAMPAIGNS_FILE" envDefault:""`

	// Customer auth
	JWTSecret string        `env:"JWT_SECRET" envDefault:""`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:""`
	JWTLeeway time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	// Rate limiting of cart writes, per client IP.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Cache-Control max-age for shipment method responses, in seconds.
	ShippingCacheMaxAge int `env:"SHIPPING_CACHE_MAX_AGE" envDefault:"300"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	Version        string  `env:"SERVICE_VERSION" envDefault:"0.1.0"`
}

// Load reads configuration from environment variables, after merging any
// .env.local and .env files found in the working directory.
func Load() (*Config, error) {
	if _, err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.CartTTLHours <= 0 {
		errs = append(errs, fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours))
	}
	if c.CartMaxItems <= 0 || c.CartMaxQty <= 0 {
		errs = append(errs, errors.New("CART_MAX_ITEMS and CART_MAX_QUANTITY must be positive"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}
	if c.StorefrontURL == "" {
		errs = append(errs, errors.New("STOREFRONT_API_URL is required"))
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.StorefrontAPIKey == "" {
			errs = append(errs, errors.New("STOREFRONT_API_KEY is required in production"))
		}
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CartTTL returns the cart expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	pc := database.DefaultPostgresConfig()
	pc.URL = c.DatabaseURL
	pc.Host = c.PostgresHost
	pc.Port = c.PostgresPort
	pc.User = c.PostgresUser
	pc.Password = c.PostgresPassword
	pc.DBName = c.PostgresDB
	pc.SSLMode = c.PostgresSSLMode
	return pc
}

// StorefrontHTTP returns the outbound client settings for the storefront API.
func (c *Config) StorefrontHTTP() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.StorefrontTimeout
	hc.MaxRetries = c.StorefrontRetries
	hc.Headers = map[string]string{"Accept": "application/json"}
	return hc
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}

// JWT returns the customer token settings.
func (c *Config) JWT() middleware.JWTConfig {
	return middleware.JWTConfig{
		Secret: c.JWTSecret,
		Issuer: c.JWTIssuer,
		Leeway: c.JWTLeeway,
	}
}

// RateLimit returns the cart write rate limit.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RequestsPerSecond: c.RateLimitRPS,
		Burst:             c.RateLimitBurst,
	}
}

// CORS returns the CORS settings.
func (c *Config) CORS() middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowedOrigins = c.CORSOrigins
	return cc
}

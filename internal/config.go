package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	LogLevel    string
	StoreName   string
	Port        uint16
	DatabaseUrl string // Empty keeps sessions in memory
	HTTP        HTTPConfig
	Backend     BackendConfig
	Session     SessionConfig
	Checkout    CheckoutConfig
	RateLimit   RateLimitConfig
	Events      EventsConfig
	Sentry      SentryConfig
}

// HTTPConfig bounds inbound storefront requests.
type HTTPConfig struct {
	// MaxFormBytes caps cart, checkout and gateway return bodies
	MaxFormBytes   int64
	RequestTimeout time.Duration
}

// BackendConfig points at the upstream REST API that owns products,
// business settings and orders.
type BackendConfig struct {
	URL        string
	OwnerID    string
	BusinessID string
	Timeout    time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

// SessionConfig controls the visitor session cookie and entry lifetime.
type SessionConfig struct {
	TTL          time.Duration
	CookieSecure bool
	SweepEvery   time.Duration
}

// CheckoutConfig holds storefront checkout options.
type CheckoutConfig struct {
	// GatewayMethods are payment method labels offered besides cash on delivery.
	GatewayMethods []string

	// PreorderMaxQty caps preorder quantity when the variant carries no stock.
	PreorderMaxQty int
}

// RateLimitConfig applies to cart and checkout POSTs, per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// EventsConfig configures order-created notifications. An empty URL disables them.
type EventsConfig struct {
	NatsURL      string
	OrderSubject string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return loadConfig(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_NAME", "Dokan")
	v.SetDefault("PORT", 3000)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MAX_FORM_BYTES", 64<<10)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BACKEND_URL", "http://localhost:8080/api/v1")
	v.SetDefault("OWNER_ID", "")
	v.SetDefault("BUSINESS_ID", "")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("CACHE_TTL", "1m")
	v.SetDefault("CACHE_SIZE", 512)
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "10m")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("GATEWAY_METHODS", "sslCommerz")
	v.SetDefault("PREORDER_MAX_QTY", 10)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("ORDER_SUBJECT", "dokan.orders.created")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_ENABLED", false) // Disabled by default for development
	v.SetDefault("SENTRY_ENVIRONMENT", "development")
	v.SetDefault("SENTRY_RELEASE", "")
	v.SetDefault("SENTRY_SAMPLE_RATE", 1.0)
	v.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.0)
	v.SetDefault("SENTRY_DEBUG", false)

	return v
}

func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:         v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		StoreName:   v.GetString("STORE_NAME"),
		Port:        uint16(v.GetUint("PORT")),
		DatabaseUrl: v.GetString("DATABASE_URL"),
		HTTP: HTTPConfig{
			MaxFormBytes:   v.GetInt64("MAX_FORM_BYTES"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Backend: BackendConfig{
			URL:        strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			OwnerID:    v.GetString("OWNER_ID"),
			BusinessID: v.GetString("BUSINESS_ID"),
			Timeout:    v.GetDuration("BACKEND_TIMEOUT"),
			CacheTTL:   v.GetDuration("CACHE_TTL"),
			CacheSize:  v.GetInt("CACHE_SIZE"),
		},
		Session: SessionConfig{
			TTL:          v.GetDuration("SESSION_TTL"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
			SweepEvery:   v.GetDuration("SESSION_SWEEP_INTERVAL"),
		},
		Checkout: CheckoutConfig{
			GatewayMethods: splitList(v.GetString("GATEWAY_METHODS")),
			PreorderMaxQty: v.GetInt("PREORDER_MAX_QTY"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Events: EventsConfig{
			NatsURL:      v.GetString("NATS_URL"),
			OrderSubject: v.GetString("ORDER_SUBJECT"),
		},
		Sentry: SentryConfig{
			DSN:              v.GetString("SENTRY_DSN"),
			Enabled:          v.GetBool("SENTRY_ENABLED"),
			Environment:      v.GetString("SENTRY_ENVIRONMENT"),
			Release:          v.GetString("SENTRY_RELEASE"),
			SampleRate:       v.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: v.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Debug:            v.GetBool("SENTRY_DEBUG"),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.HTTP.MaxFormBytes <= 0 {
		cfg.HTTP.MaxFormBytes = 64 << 10
	}
	// The timeout must outlast a backend call or checkout would 503 before
	// the order response arrives
	if cfg.HTTP.RequestTimeout <= cfg.Backend.Timeout {
		cfg.HTTP.RequestTimeout = cfg.Backend.Timeout + 5*time.Second
	}

	if cfg.Checkout.PreorderMaxQty < 1 {
		cfg.Checkout.PreorderMaxQty = 10
	}

	// The storefront cannot serve anything without a backend tenant in production
	if cfg.Env == "prod" {
		if cfg.Backend.OwnerID == "" || cfg.Backend.BusinessID == "" {
			return nil, fmt.Errorf("OWNER_ID and BUSINESS_ID must be set in production environment")
		}
		if cfg.Backend.URL == "" {
			return nil, fmt.Errorf("BACKEND_URL must be set in production environment")
		}
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	DBUrl       string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	// Supabase issues the tokens; we only verify them
	SupabaseUrl       string `env:"SUPABASE_URL"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`
	FrontendURL       string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	// Redis/Upstash Configuration
	UpstashRedisURL      string `env:"UPSTASH_REDIS_URL"`
	UpstashRedisPassword string `env:"UPSTASH_REDIS_PASSWORD"`
	// Shared secret presented by the payment gateway callback
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
	// Rate Limiting Configuration
	RateLimitWindowSeconds    int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitGlobalThreshold  int `env:"RATE_LIMIT_GLOBAL_THRESHOLD" envDefault:"100"`
	RateLimitMessageThreshold int `env:"RATE_LIMIT_MESSAGE_THRESHOLD" envDefault:"30"`
	// Tracing is disabled when empty
	OTelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
}

func LoadConfig() (*Config, error) {
	// Only effective locally; production injects the environment directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Strip trailing slashes to avoid ".co//auth" style URLs
	cfg.SupabaseUrl = strings.TrimRight(cfg.SupabaseUrl, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("parse env: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.StoreDriver == StoreDriverPostgres && cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting and message fan-out stay in-process.")
	}
	if cfg.PaymentWebhookSecret == "" {
		log.Println("WARNING: PAYMENT_WEBHOOK_SECRET not configured. Only admins can record payments.")
	}

	return cfg, nil
}

// RateLimitWindow returns the configured window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

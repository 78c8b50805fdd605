// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Payment     PaymentConfig
	Ledger      LedgerConfig
	Feeds       FeedsConfig
	I18n        I18nConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	ReadTimeout      int
	WriteTimeout     int
	IdleTimeout      int
	AllowedOrigins   []string
	RateLimitPerSec  float64
	RateLimitBurst   int
	WriteRateLimit   float64
	WriteRateBurst   int
	MetricsEnabled   bool
	ShutdownTimeout  int
	StoreDriver      string // postgres | memory
	SeedFromFeeds    bool
	TrustedProxies   []string
	MaxRequestBodyKB int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	Issuer         string
	AccessTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	S3Bucket        string
	FeedPrefix      string
	ReportPrefix    string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	Currency             string
}

// LedgerConfig tunes the share engine and the overdue sweep.
type LedgerConfig struct {
	SplitMaxRetries int
	SplitRetryDelay time.Duration
	OverdueSchedule string
	OverdueEnabled  bool
}

type FeedsConfig struct {
	Source string // local | s3
	Dir    string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Host:             getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:      getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:     getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:      getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerSec:  getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 20),
			WriteRateLimit:   getEnvAsFloat("WRITE_RATE_LIMIT_PER_SECOND", 2),
			WriteRateBurst:   getEnvAsInt("WRITE_RATE_LIMIT_BURST", 5),
			MetricsEnabled:   getEnvAsBool("METRICS_ENABLED", true),
			ShutdownTimeout:  getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
			StoreDriver:      getEnv("STORE_DRIVER", "postgres"),
			SeedFromFeeds:    getEnvAsBool("SEED_FROM_FEEDS", false),
			TrustedProxies:   getEnvAsSlice("TRUSTED_PROXIES", nil),
			MaxRequestBodyKB: getEnvAsInt("MAX_REQUEST_BODY_KB", 512),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "coral_ledger"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer:         getEnv("JWT_ISSUER", "coral-ledger"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "coral-ledger-feeds"),
			FeedPrefix:      getEnv("AWS_S3_FEED_PREFIX", "feeds/"),
			ReportPrefix:    getEnv("AWS_S3_REPORT_PREFIX", "reports/"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			Currency:             strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		},
		Ledger: LedgerConfig{
			SplitMaxRetries: getEnvAsInt("LEDGER_SPLIT_MAX_RETRIES", 5),
			SplitRetryDelay: time.Duration(getEnvAsInt("LEDGER_SPLIT_RETRY_DELAY_MS", 20)) * time.Millisecond,
			OverdueSchedule: getEnv("LEDGER_OVERDUE_SCHEDULE", "@every 1h"),
			OverdueEnabled:  getEnvAsBool("LEDGER_OVERDUE_ENABLED", true),
		},
		Feeds: FeedsConfig{
			Source: getEnv("FEEDS_SOURCE", "local"),
			Dir:    getEnv("FEEDS_DIR", "./data"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.IsProduction() && c.Server.StoreDriver == "postgres" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Ledger.SplitMaxRetries < 1 {
		return fmt.Errorf("LEDGER_SPLIT_MAX_RETRIES must be positive, got %d", c.Ledger.SplitMaxRetries)
	}

	switch c.Server.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Server.StoreDriver)
	}

	switch c.Feeds.Source {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown FEEDS_SOURCE %q", c.Feeds.Source)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Ledger.SplitMaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.SplitRetryDelay)
	assert.Equal(t, "@every 1h", cfg.Ledger.OverdueSchedule)
	assert.Equal(t, "postgres", cfg.Server.StoreDriver)
	assert.Equal(t, "usd", cfg.Payment.Currency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_SPLIT_MAX_RETRIES", "9")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PAYMENT_CURRENCY", "EUR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Ledger.SplitMaxRetries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "memory", cfg.Server.StoreDriver)
	assert.Equal(t, "eur", cfg.Payment.Currency)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT secret")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("LEDGER_SPLIT_MAX_RETRIES", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "LEDGER_SPLIT_MAX_RETRIES")

	t.Setenv("LEDGER_SPLIT_MAX_RETRIES", "3")
	t.Setenv("FEEDS_SOURCE", "ftp")
	_, err = Load()
	assert.ErrorContains(t, err, "FEEDS_SOURCE")
}

package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://handlepay:handlepay_pass@db:5432/handlepay?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 600*time.Millisecond, cfg.ResolveDebounce)
	assert.Equal(t, 500*time.Millisecond, cfg.AllowanceDebounce)
	assert.Zero(t, cfg.ValidationTimeout)
	assert.Zero(t, cfg.ConfirmationTimeout)
	assert.True(t, cfg.PaymentRouter.IsZero())
	assert.Nil(t, cfg.HistorySigningKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEDGER_RPC_RATE", "2.5")
	t.Setenv("LEDGER_RPC_BURST", "nope")
	t.Setenv("CONFIRMATION_TIMEOUT", "2m")
	t.Setenv("PAYMENT_ROUTER_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("REGISTRY_ADDRESS", "0x3333333333333333333333333333333333333333")
	t.Setenv("HISTORY_SIGNING_KEY", "0a0b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 2.5, cfg.LedgerRPCRate)
	assert.Equal(t, 10, cfg.LedgerRPCBurst)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmationTimeout)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.PaymentRouter.Hex())
	assert.False(t, cfg.Registry.IsZero())
	assert.Equal(t, []byte{0x0a, 0x0b}, cfg.HistorySigningKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad address", func(t *testing.T) {
		t.Setenv("GIVEAWAY_ADDRESS", "0x123")
		_, err := Load()
		assert.ErrorContains(t, err, "GIVEAWAY_ADDRESS")
	})

	t.Run("bad key", func(t *testing.T) {
		t.Setenv("HISTORY_SIGNING_KEY", "zz")
		_, err := Load()
		assert.ErrorContains(t, err, "HISTORY_SIGNING_KEY")
	})

	t.Run("bad level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load()
		assert.Error(t, err)
	})
}

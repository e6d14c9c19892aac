package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/domain/account"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	ServerAddr    string
	MigrationsDir string
	LogLevel      zerolog.Level

	LedgerRPCURL        string
	LedgerRPCRate       float64
	LedgerRPCBurst      int
	ReceiptPollInterval time.Duration

	PaymentRouter account.Account
	Giveaway      account.Account
	Registry      account.Account

	ResolveDebounce     time.Duration
	AllowanceDebounce   time.Duration
	ValidationTimeout   time.Duration
	ConfirmationTimeout time.Duration
	SSEHeartbeat        time.Duration

	HistorySigningKey []byte
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "handlepay")
		pass := getenv("POSTGRES_PASSWORD", "handlepay_pass")
		db := getenv("POSTGRES_DB", "handlepay")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   dsn,
		ServerAddr:    getenv("SERVER_ADDR", "0.0.0.0:8080"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "internal/migrations"),
		LogLevel:      level,

		LedgerRPCURL:        getenv("LEDGER_RPC_URL", "http://localhost:8545"),
		LedgerRPCRate:       parseFloat(getenv("LEDGER_RPC_RATE", "20"), 20),
		LedgerRPCBurst:      parseInt(getenv("LEDGER_RPC_BURST", "10"), 10),
		ReceiptPollInterval: parseDuration(getenv("RECEIPT_POLL_INTERVAL", "2s"), 2*time.Second),

		ResolveDebounce:     parseDuration(getenv("RESOLVE_DEBOUNCE", "600ms"), 600*time.Millisecond),
		AllowanceDebounce:   parseDuration(getenv("ALLOWANCE_DEBOUNCE", "500ms"), 500*time.Millisecond),
		ValidationTimeout:   parseDuration(os.Getenv("VALIDATION_TIMEOUT"), 0),
		ConfirmationTimeout: parseDuration(os.Getenv("CONFIRMATION_TIMEOUT"), 0),
		SSEHeartbeat:        parseDuration(getenv("SSE_HEARTBEAT", "15s"), 15*time.Second),
	}

	if cfg.PaymentRouter, err = parseAccount("PAYMENT_ROUTER_ADDRESS"); err != nil {
		return nil, err
	}
	if cfg.Giveaway, err = parseAccount("GIVEAWAY_ADDRESS"); err != nil {
		return nil, err
	}
	if cfg.Registry, err = parseAccount("REGISTRY_ADDRESS"); err != nil {
		return nil, err
	}
	if key := os.Getenv("HISTORY_SIGNING_KEY"); key != "" {
		if cfg.HistorySigningKey, err = hex.DecodeString(key); err != nil {
			return nil, fmt.Errorf("HISTORY_SIGNING_KEY must be hex: %w", err)
		}
	}
	return cfg, nil
}

// parseAccount reads an optional contract address. Flows that need an unset
// contract refuse to open.
func parseAccount(key string) (account.Account, error) {
	val := os.Getenv(key)
	if val == "" {
		return account.Zero, nil
	}
	a, err := account.Parse(val)
	if err != nil {
		return account.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return a, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}

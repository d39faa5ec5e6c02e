// Package config loads service configuration from the environment. Config
// is read once at startup and passed down explicitly; nothing in the
// transactional path reads the environment again.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger holds the Ledger Orchestrator's configuration.
type Ledger struct {
	DBSource          string
	Port              string
	Env               string
	// Keyspace and ReplicationFactor are carried for a future wide-column
	// event-store backend; the Postgres backend ignores them.
	Keyspace          string
	ReplicationFactor int

	BalanceBaseURL   string
	RecipientBaseURL string
	InterbankBaseURL string
	InterbankAPIKey  string

	BalanceCallTimeout   time.Duration
	RecipientCallTimeout time.Duration
	InterbankCallTimeout time.Duration

	IdempotencyKeyTTL time.Duration

	// OriginBank identifies this institution on outbound interbank
	// transfers.
	OriginBank string
	// SupportedBanks is the allow-list of destination banks; anything
	// else is rejected before any saga step runs.
	SupportedBanks []string
}

// Balance holds the Balance Authority's configuration.
type Balance struct {
	DBSource string
	Port     string
	Env      string
}

func LoadLedger() (*Ledger, error) {
	dbSource := os.Getenv("LEDGER_DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("LEDGER_DB_SOURCE environment variable is required")
	}
	balanceURL := os.Getenv("BALANCE_BASE_URL")
	if balanceURL == "" {
		return nil, fmt.Errorf("BALANCE_BASE_URL environment variable is required")
	}
	recipientURL := os.Getenv("RECIPIENT_BASE_URL")
	if recipientURL == "" {
		return nil, fmt.Errorf("RECIPIENT_BASE_URL environment variable is required")
	}
	interbankURL := os.Getenv("INTERBANK_BASE_URL")
	if interbankURL == "" {
		return nil, fmt.Errorf("INTERBANK_BASE_URL environment variable is required")
	}

	return &Ledger{
		DBSource:          dbSource,
		Port:              envDefault("LEDGER_PORT", "8081"),
		Env:               envDefault("ENVIRONMENT", "development"),
		Keyspace:          envDefault("LEDGER_KEYSPACE", "pixelmoney"),
		ReplicationFactor: envInt("LEDGER_REPLICATION_FACTOR", 1),

		BalanceBaseURL:   balanceURL,
		RecipientBaseURL: recipientURL,
		InterbankBaseURL: interbankURL,
		InterbankAPIKey:  os.Getenv("INTERBANK_API_KEY"),

		BalanceCallTimeout:   envDuration("BALANCE_CALL_TIMEOUT", 3*time.Second),
		RecipientCallTimeout: envDuration("RECIPIENT_CALL_TIMEOUT", 3*time.Second),
		InterbankCallTimeout: envDuration("INTERBANK_CALL_TIMEOUT", 10*time.Second),

		IdempotencyKeyTTL: envDuration("IDEMPOTENCY_KEY_TTL", 24*time.Hour),

		OriginBank:     envDefault("ORIGIN_BANK", "PIXELMONEY"),
		SupportedBanks: envList("SUPPORTED_BANKS", []string{"PIXELMONEY"}),
	}, nil
}

func LoadBalance() (*Balance, error) {
	dbSource := os.Getenv("BALANCE_DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("BALANCE_DB_SOURCE environment variable is required")
	}
	return &Balance{
		DBSource: dbSource,
		Port:     envDefault("BALANCE_PORT", "8082"),
		Env:      envDefault("ENVIRONMENT", "development"),
	}, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

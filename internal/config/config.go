// Package config loads service configuration from environment variables,
// with optional .env file support for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the watcher service.
type Config struct {
	App       AppConfig
	Solana    SolanaConfig
	Postgres  PostgresConfig
	Analytics AnalyticsConfig
	Detection DetectionConfig
	Alerts    AlertsConfig
	API       APIConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// MetricsAddr serves /metrics and /health.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

type SolanaConfig struct {
	RPCEndpoint string `envconfig:"SOLANA_RPC_ENDPOINT"`
	WSEndpoint  string `envconfig:"SOLANA_WS_ENDPOINT"`
	// Program is the monitored launch program id (pump.fun by default).
	Program string `envconfig:"SOLANA_PROGRAM" default:"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"`
}

type PostgresConfig struct {
	DSN string `envconfig:"POSTGRES_DSN"`
	// UseMemory replaces PostgreSQL with in-memory stores (dev/test).
	UseMemory bool `envconfig:"USE_MEMORY_STORES" default:"false"`
}

type AnalyticsConfig struct {
	// ClickhouseDSN enables the interaction archive when set.
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
}

// DetectionConfig carries the scoring thresholds. The values have no
// behavior of their own; the detectors interpret them.
type DetectionConfig struct {
	// EarlyEntryWindowSeconds is the max offset from token creation for
	// an interaction to classify as an early entry.
	EarlyEntryWindowSeconds int64 `envconfig:"EARLY_ENTRY_WINDOW_SECONDS" default:"60"`
	// MinBuySizeSol is the minimum buy size the insider heuristic
	// considers significant.
	MinBuySizeSol float64 `envconfig:"MIN_BUY_SIZE_SOL" default:"5"`
	// MinInsiderRepetitions is the repetition gate: a wallet is never
	// flagged insider with fewer early entries than this.
	MinInsiderRepetitions int64 `envconfig:"MIN_INSIDER_REPETITIONS" default:"3"`
	// WhaleScoreThreshold is the alerting threshold for whale_entry and
	// multiple_whales.
	WhaleScoreThreshold int `envconfig:"WHALE_SCORE_THRESHOLD" default:"70"`
}

type AlertsConfig struct {
	// TelegramToken enables the Telegram sink when set.
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
	// FilePath enables the JSON-lines file sink when set.
	FilePath string `envconfig:"ALERT_FILE_PATH"`
}

type APIConfig struct {
	Addr string `envconfig:"API_ADDR" default:":8080"`
}

// Load reads configuration from the environment, with .env fallback.
// Priority order: environment variables > .env file > defaults.
func Load() (*Config, error) {
	// Ignore error: absence of a .env file is normal outside dev.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field requirements that envconfig tags cannot express.
func (c *Config) Validate() error {
	if !c.Postgres.UseMemory && c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required unless USE_MEMORY_STORES=true")
	}
	if c.Detection.EarlyEntryWindowSeconds <= 0 {
		return fmt.Errorf("EARLY_ENTRY_WINDOW_SECONDS must be positive")
	}
	if c.Detection.MinBuySizeSol <= 0 {
		return fmt.Errorf("MIN_BUY_SIZE_SOL must be positive")
	}
	if c.Detection.MinInsiderRepetitions < 1 {
		return fmt.Errorf("MIN_INSIDER_REPETITIONS must be at least 1")
	}
	if c.Detection.WhaleScoreThreshold < 0 || c.Detection.WhaleScoreThreshold > 100 {
		return fmt.Errorf("WHALE_SCORE_THRESHOLD must be in [0,100]")
	}
	if c.Alerts.TelegramToken != "" && c.Alerts.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

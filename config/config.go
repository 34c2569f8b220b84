package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, assembled from the
// environment (with .env support) at startup.
type Config struct {
	Scanner  ScannerConfig  `json:"scanner"`
	Trading  TradingConfig  `json:"trading"`
	Market   MarketConfig   `json:"market"`
	Holder   HolderConfig   `json:"holder"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging"`
}

// ScannerConfig controls the scan loop cadence.
type ScannerConfig struct {
	ScanIntervalSec int `json:"scan_interval"`
	TrendingLimit   int `json:"trending_tokens_limit"`
}

// TradingConfig carries the signal-quality knobs.
type TradingConfig struct {
	ZoneScoreMin       float64 `json:"zone_score_min"`
	ProximityThreshold float64 `json:"proximity_threshold"`
	CooldownHours      float64 `json:"cooldown_hours"`
	FibonacciTolerance float64 `json:"fibonacci_tolerance"`
}

// MarketConfig configures the OHLCV provider client.
type MarketConfig struct {
	BaseURL      string `json:"base_url"`
	RateLimitRPS int    `json:"rate_limit_rps"`
}

// HolderConfig configures the holder-stats provider. An empty APIKey
// disables the client.
type HolderConfig struct {
	APIKey string `json:"-"`
}

// DatabaseConfig holds the PostgreSQL DSN.
type DatabaseConfig struct {
	URL string `json:"-"`
}

// RedisConfig holds the optional second-level cache settings.
type RedisConfig struct {
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// TelegramConfig holds chat sink credentials.
type TelegramConfig struct {
	BotToken string `json:"-"`
	ChatID   string `json:"chat_id"`
}

// ServerConfig holds the ops HTTP surface settings.
type ServerConfig struct {
	Port           int  `json:"port"`
	ProductionMode bool `json:"production_mode"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present. Missing database or
// chat credentials are fatal; everything else falls back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scanner: ScannerConfig{
			ScanIntervalSec: getEnvInt("SCAN_INTERVAL", 120),
			TrendingLimit:   getEnvInt("TRENDING_TOKENS_LIMIT", 50),
		},
		Trading: TradingConfig{
			ZoneScoreMin:       getEnvFloat("ZONE_SCORE_MIN", 2.0),
			ProximityThreshold: getEnvFloat("PROXIMITY_THRESHOLD", 0.08),
			CooldownHours:      getEnvFloat("COOLDOWN_HOURS", 2.0),
			FibonacciTolerance: getEnvFloat("FIBONACCI_TOLERANCE", 0.02),
		},
		Market: MarketConfig{
			BaseURL:      getEnvOrDefault("GECKOTERMINAL_BASE_URL", "https://api.geckoterminal.com/api/v2"),
			RateLimitRPS: getEnvInt("GECKOTERMINAL_RATE_LIMIT", 30),
		},
		Holder: HolderConfig{
			APIKey: os.Getenv("HOLDER_API_KEY"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:     getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
			Enabled: getEnvOrDefault("REDIS_ENABLED", "false") == "true",
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Server: ServerConfig{
			Port:           getEnvInt("API_PORT", 8080),
			ProductionMode: getEnvOrDefault("PRODUCTION_MODE", "true") == "true",
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Pretty: getEnvOrDefault("LOG_PRETTY", "false") == "true",
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt falls back to the default on absence or parse error.
func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvFloat falls back to the default on absence or parse error.
func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

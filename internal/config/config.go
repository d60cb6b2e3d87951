package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               int
	DevMode            bool
	DatabasePath       string
	AlphaVantageAPIKey string
	AlphaVantageURL    string
	RedisURL           string // optional; empty means in-memory cache
	LogLevel           string
	QuoteCacheTTL      time.Duration
	BackfillCacheTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8000),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/fundrisk.db"),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageURL:    getEnv("ALPHA_VANTAGE_URL", "https://www.alphavantage.co"),
		RedisURL:           getEnv("REDIS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		QuoteCacheTTL:      getEnvAsDuration("QUOTE_CACHE_TTL", time.Hour),
		BackfillCacheTTL:   getEnvAsDuration("BACKFILL_CACHE_TTL", 12*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	// API key is optional: without it live quotes and backfill degrade
	// to "unavailable" instead of failing requests.

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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

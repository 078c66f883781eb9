package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	LogLevel       string
	IsProduction   bool
	MigrationsPath string

	// LockRetryLimit bounds how many times a caller-visible operation retries
	// after a serialization/lock conflict before surfacing ErrConcurrency.
	LockRetryLimit int
}

// LoadConfig loads configuration from environment variables and a .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("LOCK_RETRY_LIMIT", 3)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    viper.GetString("DATABASE_URL"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		IsProduction:   viper.GetBool("IS_PRODUCTION"),
		MigrationsPath: viper.GetString("MIGRATIONS_PATH"),
		LockRetryLimit: viper.GetInt("LOCK_RETRY_LIMIT"),
	}

	if cfg.LockRetryLimit < 1 {
		return nil, fmt.Errorf("LOCK_RETRY_LIMIT must be at least 1, got %d", cfg.LockRetryLimit)
	}

	return cfg, nil
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database and backup staging (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Auth
	JWTSecret string // Shared secret used by the identity provider to sign access tokens

	// Market data providers
	FinnhubAPIKey    string
	MetalPriceAPIKey string
	MarketauxAPIKey  string

	// Price refresh sweep
	RefreshInterval time.Duration // Interval between bulk price sweeps
	QuotePacing     time.Duration // Delay between consecutive outbound quote requests

	// CORS
	AllowedOrigins []string

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration.
// Backups are disabled unless all credential fields are present.
type BackupConfig struct {
	Endpoint  string // Custom endpoint for S3-compatible stores (empty for AWS S3)
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// Enabled reports whether backup credentials are fully configured
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.AccessKey != "" && b.SecretKey != "" && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HOLDWATCH_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 5000),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		FinnhubAPIKey:    getEnv("FINNHUB_API_KEY", ""),
		MetalPriceAPIKey: getEnv("METAL_API_KEY", ""),
		MarketauxAPIKey:  getEnv("NEWS_API_KEY", ""),
		RefreshInterval:  getEnvAsDuration("PRICE_REFRESH_INTERVAL", 5*time.Minute),
		QuotePacing:      getEnvAsDuration("QUOTE_PACING", time.Second),
		AllowedOrigins:   []string{getEnv("FRONTEND_ORIGIN", "http://localhost:5173")},
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required (shared secret of the identity provider)")
	}
	if c.RefreshInterval < time.Minute {
		return fmt.Errorf("PRICE_REFRESH_INTERVAL must be at least 1m, got %s", c.RefreshInterval)
	}

	// Note: provider API keys are optional; endpoints backed by a missing key
	// surface upstream errors instead of failing startup.
	return nil
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:    getEnv("BACKUP_S3_REGION", "auto"),
		AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
		Prefix:    getEnv("BACKUP_S3_PREFIX", "holdwatch"),
	}
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

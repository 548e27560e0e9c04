// Package config loads application configuration from environment
// variables, with an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DatabasePath string

	// Credential encryption
	EncryptionKey string

	// Media handling
	MediaDir     string // directory for transient downloads; empty means the system temp dir
	MediaTimeout time.Duration

	// Dispatch
	DispatchWorkers int

	// Source monitoring
	MonitorInterval time.Duration
	MonitorVKToken  string
	MonitorVKOwner  string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:   getEnv("DATABASE_PATH", "data/crossbot.db"),
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		MediaDir:       getEnv("MEDIA_DIR", ""),
		MonitorVKToken: getEnv("MONITOR_VK_TOKEN", ""),
		MonitorVKOwner: getEnv("MONITOR_VK_OWNER", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.MediaTimeout, err = time.ParseDuration(getEnv("MEDIA_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_TIMEOUT: %w", err)
	}

	cfg.MonitorInterval, err = time.ParseDuration(getEnv("MONITOR_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONITOR_INTERVAL: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("DISPATCH_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_WORKERS: %w", err)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("invalid DISPATCH_WORKERS: must be positive, got %d", workers)
	}
	cfg.DispatchWorkers = workers

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForDispatch checks configuration needed to publish posts.
// Encrypted credentials cannot be revealed without the key.
func (c *Config) ValidateForDispatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for dispatch")
	}
	return nil
}

// ValidateForServe checks all configuration needed for serve mode,
// which polls the VK source feed and dispatches what it finds.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForDispatch(); err != nil {
		return err
	}
	if c.MonitorVKToken == "" {
		return fmt.Errorf("MONITOR_VK_TOKEN is required for serve")
	}
	if c.MonitorVKOwner == "" {
		return fmt.Errorf("MONITOR_VK_OWNER is required for serve")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

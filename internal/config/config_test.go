package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env and restore after test
	origEnv := os.Environ()
	t.Cleanup(func() {
		os.Clearenv()
		for _, e := range origEnv {
			for i := 0; i < len(e); i++ {
				if e[i] == '=' {
					os.Setenv(e[:i], e[i+1:])
					break
				}
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "data/crossbot.db", cfg.DatabasePath)
		assert.Empty(t, cfg.MediaDir)
		assert.Equal(t, 30*time.Second, cfg.MediaTimeout)
		assert.Equal(t, 4, cfg.DispatchWorkers)
		assert.Equal(t, 5*time.Minute, cfg.MonitorInterval)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("custom values", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("DATABASE_PATH", "/custom/path.db")
		os.Setenv("ENCRYPTION_KEY", "supersecret")
		os.Setenv("MONITOR_INTERVAL", "1h")
		os.Setenv("DISPATCH_WORKERS", "8")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "/custom/path.db", cfg.DatabasePath)
		assert.Equal(t, "supersecret", cfg.EncryptionKey)
		assert.Equal(t, time.Hour, cfg.MonitorInterval)
		assert.Equal(t, 8, cfg.DispatchWorkers)
	})

	t.Run("invalid duration", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("MONITOR_INTERVAL", "invalid")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MONITOR_INTERVAL")
	})

	t.Run("invalid worker count", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("DISPATCH_WORKERS", "notanumber")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DISPATCH_WORKERS")

		os.Setenv("DISPATCH_WORKERS", "0")
		_, err = Load()
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_PATH")
	})
}

func TestConfig_ValidateForDispatch(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db", EncryptionKey: "secret"}
		assert.NoError(t, cfg.ValidateForDispatch())
	})

	t.Run("missing encryption key", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db"}
		err := cfg.ValidateForDispatch()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
	})
}

func TestConfig_ValidateForServe(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:   "test.db",
			EncryptionKey:  "secret",
			MonitorVKToken: "tok",
			MonitorVKOwner: "-123",
		}
		assert.NoError(t, cfg.ValidateForServe())
	})

	t.Run("missing vk token", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:   "test.db",
			EncryptionKey:  "secret",
			MonitorVKOwner: "-123",
		}
		err := cfg.ValidateForServe()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MONITOR_VK_TOKEN")
	})

	t.Run("missing vk owner", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:   "test.db",
			EncryptionKey:  "secret",
			MonitorVKToken: "tok",
		}
		err := cfg.ValidateForServe()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MONITOR_VK_OWNER")
	})
}

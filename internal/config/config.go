// Package config loads the tool's settings from environment variables
// with working defaults for every value.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"wallsweep/internal/export"
	"wallsweep/internal/vk"
	"wallsweep/internal/wall"
)

// Config holds all configuration for the tool.
type Config struct {
	API     APIConfig
	Auth    AuthConfig
	Sweep   SweepConfig
	Export  ExportConfig
	Archive ArchiveConfig
}

// APIConfig points the client at the VK API.
type APIConfig struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// AuthConfig drives the login flow. Token, when set, skips the
// interactive prompt entirely.
type AuthConfig struct {
	ClientID    string
	RedirectURI string
	ListenAddr  string
	Token       string
}

// SweepConfig paces the enumerate and delete loops.
type SweepConfig struct {
	PageSize    int
	PagePause   time.Duration
	DeletePause time.Duration
}

// ExportConfig names the text archive file.
type ExportConfig struct {
	Filename string
}

// ArchiveConfig enables the optional Postgres ledger when DSN is set.
type ArchiveConfig struct {
	DSN string
}

// Load reads the environment and validates the values that can make
// the loops misbehave.
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("VK_API_BASE_URL", vk.DefaultBaseURL),
			Version: getEnv("VK_API_VERSION", vk.APIVersion),
			Timeout: getEnvDuration("VK_API_TIMEOUT", vk.DefaultTimeout),
		},
		Auth: AuthConfig{
			ClientID:    getEnv("VK_CLIENT_ID", vk.DefaultClientID),
			RedirectURI: getEnv("VK_REDIRECT_URI", vk.DefaultRedirectURI),
			ListenAddr:  getEnv("AUTH_LISTEN_ADDR", "127.0.0.1:8080"),
			Token:       getEnv("VK_TOKEN", ""),
		},
		Sweep: SweepConfig{
			PageSize:    getEnvInt("WALL_PAGE_SIZE", wall.DefaultPageSize),
			PagePause:   getEnvDuration("WALL_PAGE_PAUSE", wall.DefaultPagePause),
			DeletePause: getEnvDuration("WALL_DELETE_PAUSE", wall.DefaultDeletePause),
		},
		Export: ExportConfig{
			Filename: getEnv("EXPORT_FILENAME", export.DefaultFilename),
		},
		Archive: ArchiveConfig{
			DSN: getEnv("WALLSWEEP_DB_DSN", ""),
		},
	}

	if cfg.Sweep.PageSize <= 0 {
		return nil, fmt.Errorf("WALL_PAGE_SIZE must be positive, got %d", cfg.Sweep.PageSize)
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("VK_API_TIMEOUT must be positive, got %s", cfg.API.Timeout)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

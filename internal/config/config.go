package config

import (
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// RateLimit is the per-identity requests/minute cap on proxy routes.
	// 0 disables rate limiting.
	RateLimit int

	// Providers contains the upstream provider declarations.
	Providers []ProviderConfig
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() (*Config, error) {
	fileConfig, err := LoadFile()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort: getEnvOrFile("SERVER_PORT", fileConfig.ServerPort, ":8080"),
		RateLimit:  getEnvIntOrFile("RATE_LIMIT", fileConfig.RateLimit, 0),
		Providers:  fileConfig.Providers,
	}, nil
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue *int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

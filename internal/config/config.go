package config

import (
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ListenAddr is the address to bind the server to (e.g., ":8080")
	ListenAddr string

	// DBPath is the SQLite database file location
	DBPath string

	// PricelistPath is the TOML pricelist file location
	PricelistPath string

	// RawRetentionDays controls how long raw request/response snapshots
	// are kept before the sweeper purges them. 0 disables the sweeper.
	RawRetentionDays int

	// EnableMetrics exposes prometheus collectors at /metrics
	EnableMetrics bool
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fileConfig, _ := LoadFile() // Ignore error, use defaults

	return &Config{
		ListenAddr:       getEnvOrFile("TOLLGATE_LISTEN_ADDR", fileConfig.ListenAddr, ":8080"),
		DBPath:           getEnvOrFile("TOLLGATE_DB_PATH", fileConfig.DBPath, DBPath()),
		PricelistPath:    getEnvOrFile("TOLLGATE_PRICELIST", fileConfig.PricelistPath, PricelistPath()),
		RawRetentionDays: getEnvIntOrFile("TOLLGATE_RAW_RETENTION_DAYS", fileConfig.RawRetentionDays, 30),
		EnableMetrics:    getEnvBoolOrFile("TOLLGATE_ENABLE_METRICS", fileConfig.EnableMetrics, true),
	}
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

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

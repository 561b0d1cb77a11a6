package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ListenAddr       string `toml:"listen_addr"`
	DBPath           string `toml:"db_path"`
	PricelistPath    string `toml:"pricelist_path"`
	RawRetentionDays *int   `toml:"raw_retention_days"`
	EnableMetrics    *bool  `toml:"enable_metrics"`
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# Tollgate Configuration
# listen_addr = ":8080"
# db_path = "~/.tollgate/tollgate.db"
# pricelist_path = "~/.tollgate/pricelist.toml"

# How long raw request/response snapshots are kept (days). 0 disables the sweeper.
# raw_retention_days = 30

# Expose prometheus collectors at /metrics
# enable_metrics = true
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the Tollgate data directory.
// - Windows: %APPDATA%\tollgate
// - Other OS: ~/.tollgate
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tollgate")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".tollgate"
	}
	return filepath.Join(home, ".tollgate")
}

// ConfigPath returns the path to the config file (~/.tollgate/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "tollgate.db")
}

// PricelistPath returns the path to the TOML pricelist file.
func PricelistPath() string {
	return filepath.Join(DataDir(), "pricelist.toml")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}

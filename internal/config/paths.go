package config

import (
	"os"
	"path/filepath"
)

// AtelierPath returns the root directory for Atelier data.
// It uses $ATELIER_PATH if set, otherwise defaults to ~/.atelier.
func AtelierPath() string {
	if v := os.Getenv("ATELIER_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".atelier")
	}
	return filepath.Join(home, ".atelier")
}

// ConfigPath returns the path to the Atelier config file.
func ConfigPath() string {
	return filepath.Join(AtelierPath(), "config.jsonc")
}

// DotenvPath returns the path to the Atelier .env file.
func DotenvPath() string {
	return filepath.Join(AtelierPath(), ".env")
}

// SessionsDir returns the directory holding persisted sessions.
func SessionsDir() string {
	return filepath.Join(AtelierPath(), "sessions")
}

package config

import (
	"os"
	"path/filepath"
)

// DefaultDir returns ~/.config/termharness, creating nothing — callers
// decide whether a missing directory is an error.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "termharness"), nil
}

// DefaultPath returns the default config file location inside DefaultDir.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureDir creates dir if it doesn't already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDir        = "voxbridge"
	SyncFileName  = "config.toml"
	LocalFileName = "state.toml"
)

// GetConfigDir returns (and creates) ~/.config/voxbridge
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	dir := filepath.Join(configDir, AppDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SyncPath is the settings file inside dir
func SyncPath(dir string) string {
	return filepath.Join(dir, SyncFileName)
}

// LocalPath is the machine-local state file inside dir
func LocalPath(dir string) string {
	return filepath.Join(dir, LocalFileName)
}

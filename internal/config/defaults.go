package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the application's default filesystem paths, resolved from
// environment variables where set.
//
// Environment variables:
//   - INNERFS_CONFIG_PATH: config file location (default: ~/.config/innerfs.yml)
//   - INNERFS_HOME: base directory for innerfs data (default: ~/.local/share/innerfs)
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves the application's default paths.
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}
	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("INNERFS_CONFIG_PATH"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "innerfs.yml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("INNERFS_HOME"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "innerfs"), nil
}

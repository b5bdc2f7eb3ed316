// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Network data: genesis and peer templates used when a local
//     blockchain mirror is created, then frozen in the mirror's config
//   - Client settings: data directory, logging and wallet defaults, read
//     from config.yaml, KLINGNET_CLI_* environment variables and flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds the client settings.
type Config struct {
	Network NetworkType `mapstructure:"network"`
	DataDir string      `mapstructure:"datadir"`

	Log    LogConfig    `mapstructure:"log"`
	Fee    FeeConfig    `mapstructure:"fee"`
	Wallet WalletConfig `mapstructure:"wallet"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// FeeConfig is the linear fee used when a mirror does not set one.
// Coefficient is in thousandths of a base unit per byte.
type FeeConfig struct {
	Constant    uint64 `mapstructure:"constant"`
	Coefficient uint64 `mapstructure:"coefficient"`
}

// WalletConfig holds wallet defaults.
type WalletConfig struct {
	GapLimit uint32 `mapstructure:"gap_limit"`
	Scheme   string `mapstructure:"scheme"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-cli
//	macOS:   ~/Library/Application Support/KlingnetCLI
//	Windows: %APPDATA%\KlingnetCLI
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-cli"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetCLI")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetCLI")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetCLI")
	default:
		return filepath.Join(home, ".klingnet-cli")
	}
}

// BlockchainsDir returns the directory holding local blockchain mirrors.
func (c *Config) BlockchainsDir() string {
	return filepath.Join(c.DataDir, "blockchains")
}

// WalletsDir returns the wallet storage directory.
func (c *Config) WalletsDir() string {
	return filepath.Join(c.DataDir, "wallets")
}

// PendingDir returns the staging transaction directory.
func (c *Config) PendingDir() string {
	return filepath.Join(c.DataDir, "pending")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

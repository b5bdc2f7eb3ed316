package config

import (
	"fmt"
	"strings"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// Validate checks the client config for obvious mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("datadir is required")
	}

	level := strings.ToLower(cfg.Log.Level)
	ok := false
	for _, l := range validLogLevels {
		if level == l {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("log.level must be one of %s", strings.Join(validLogLevels, ", "))
	}

	if cfg.Wallet.GapLimit == 0 {
		return fmt.Errorf("wallet.gap_limit must be positive")
	}
	switch cfg.Wallet.Scheme {
	case "bip44", "rindex":
	default:
		return fmt.Errorf("wallet.scheme must be bip44 or rindex")
	}
	return nil
}

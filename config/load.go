package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. KLINGNET_CLI_LOG_LEVEL.
const EnvPrefix = "KLINGNET_CLI"

var ErrConfigFailedToSetDefaults = errors.New("error occurred while setting defaults")

// Load builds the client configuration. Defaults come first, then
// <datadir>/config.yaml if it exists, then environment variables, then
// whatever flags were bound into v by the caller.
func Load(v *viper.Viper) (*Config, error) {
	network := NetworkType(v.GetString("network"))
	if network == "" {
		network = Mainnet
	}
	cfg := Default(network)

	if err := setDefaults(v, cfg); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := v.GetString("datadir")
	v.SetConfigFile(filepath.Join(dataDir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, defaultConfig *Config) error {
	defaultsMap := make(map[string]interface{})

	if err := mapstructure.Decode(defaultConfig, &defaultsMap); err != nil {
		return errors.Join(ErrConfigFailedToSetDefaults, err)
	}

	for key, value := range defaultsMap {
		v.SetDefault(key, value)
	}
	return nil
}

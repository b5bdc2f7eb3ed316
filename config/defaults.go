package config

// Default gap limit of sequential wallets: how many unused addresses
// past the last used one are watched.
const DefaultGapLimit = 20

// DefaultMainnet returns the default client configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
		Fee: FeeConfig{
			Constant:    155381,
			Coefficient: 43946,
		},
		Wallet: WalletConfig{
			GapLimit: DefaultGapLimit,
			Scheme:   "bip44",
		},
	}
}

// DefaultTestnet returns the default client configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	return cfg
}

// Default returns the default client configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Klingon-tech/klingnet-cli/config"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var (
	v   = viper.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "klingnet-cli",
	Short:         "Klingnet light client: blockchain mirrors, wallets and offline transactions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(v)
		if err != nil {
			return err
		}
		if err := log.Init(c.Log.Level, c.Log.JSON, c.Log.File); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		if c.Network == config.Testnet {
			types.SetAddressHRP(types.TestnetHRP)
		} else {
			types.SetAddressHRP(types.MainnetHRP)
		}
		cfg = c
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("datadir", config.DefaultDataDir(), "Data directory")
	flags.String("network", string(config.Mainnet), "Network: mainnet or testnet")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, error, disabled")
	flags.Bool("log-json", false, "Write logs as JSON")

	for key, name := range map[string]string{
		"datadir":   "datadir",
		"network":   "network",
		"log.level": "log-level",
		"log.json":  "log-json",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(name)))
	}

	rootCmd.AddCommand(blockchainCmd, walletCmd, transactionCmd)
}

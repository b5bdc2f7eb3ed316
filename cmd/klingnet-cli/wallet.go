package main

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/state"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage HD wallets",
}

func init() {
	for _, c := range []*cobra.Command{walletCreateCmd, walletRecoverCmd} {
		c.Flags().String("scheme", "", "Derivation scheme: bip44 or rindex (default from config)")
		c.Flags().Bool("recovery-password", false, "Protect the mnemonic with an extra recovery password")
	}
	walletCreateCmd.Flags().Int("words", 24, "Mnemonic length: 12, 15, 18, 21 or 24 words")
	walletRecoverCmd.Flags().String("mnemonic", "", "Mnemonic phrase (prompted for when empty)")

	walletAddressCmd.Flags().Uint32("account", 0, "Account")
	walletAddressCmd.Flags().Int64("index", -1, "Address index (bip44: next unused, rindex: random)")
	walletAddressCmd.Flags().Bool("internal", false, "Derive a change address (bip44 only)")

	walletCmd.AddCommand(
		walletCreateCmd,
		walletRecoverCmd,
		walletListCmd,
		walletDestroyCmd,
		walletAttachCmd,
		walletDetachCmd,
		walletSyncCmd,
		walletStatusCmd,
		walletLogCmd,
		walletUTXOsCmd,
		walletAddressCmd,
	)
}

// createWallet seals the seed of mnemonic in a new wallet.
func createWallet(cmd *cobra.Command, name, mnemonic string) (*wallet.Wallet, error) {
	schemeName, _ := cmd.Flags().GetString("scheme")
	if schemeName == "" {
		schemeName = cfg.Wallet.Scheme
	}
	scheme, err := wallet.ParseScheme(schemeName)
	if err != nil {
		return nil, err
	}

	var recovery string
	if withRecovery, _ := cmd.Flags().GetBool("recovery-password"); withRecovery {
		pw, err := readPassword("Recovery password: ")
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		recovery = string(pw)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, recovery)
	if err != nil {
		return nil, err
	}
	password, err := readNewPassword()
	if err != nil {
		return nil, err
	}
	return wallet.Create(cfg.DataDir, name, scheme, seed, password, wallet.DefaultParams())
}

var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a wallet from a new mnemonic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wallet.ValidateName(args[0]); err != nil {
			return err
		}
		words, _ := cmd.Flags().GetInt("words")
		mnemonic, err := wallet.GenerateMnemonic(words)
		if err != nil {
			return err
		}
		fmt.Println("Write down the following words, they are the only way to recover the wallet:")
		fmt.Println()
		for i, word := range strings.Fields(mnemonic) {
			fmt.Printf("  %2d. %s\n", i+1, word)
		}
		fmt.Println()

		w, err := createWallet(cmd, args[0], mnemonic)
		if err != nil {
			return err
		}
		fmt.Printf("Wallet %s created (%s)\n", w.Name, w.Scheme())
		return nil
	},
}

var walletRecoverCmd = &cobra.Command{
	Use:   "recover <name>",
	Short: "Recreate a wallet from its mnemonic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wallet.ValidateName(args[0]); err != nil {
			return err
		}
		mnemonic, _ := cmd.Flags().GetString("mnemonic")
		if mnemonic == "" {
			line, err := readLine("Mnemonic: ")
			if err != nil {
				return fmt.Errorf("read mnemonic: %w", err)
			}
			mnemonic = line
		}
		mnemonic = wallet.NormalizeMnemonic(mnemonic)
		if !wallet.ValidateMnemonic(mnemonic) {
			return wallet.ErrInvalidMnemonic
		}
		w, err := createWallet(cmd, args[0], mnemonic)
		if err != nil {
			return err
		}
		fmt.Printf("Wallet %s recovered (%s)\n", w.Name, w.Scheme())
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := wallet.List(cfg.DataDir)
		if err != nil {
			return err
		}
		t := newTable("Name", "Scheme", "Blockchain", "Created")
		for _, name := range names {
			w, err := loadWallet(name)
			if err != nil {
				return err
			}
			bc := w.Blockchain()
			if bc == "" {
				bc = "-"
			}
			t.AppendRow([]interface{}{w.Name, w.Scheme(), bc, w.CreatedAt().Format(time.RFC3339)})
		}
		t.Render()
		return nil
	},
}

var walletDestroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Delete a wallet and its log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		answer, err := readLine(fmt.Sprintf("Type the wallet name to destroy %s: ", w.Name))
		if err != nil {
			return err
		}
		if answer != w.Name {
			return fmt.Errorf("aborted")
		}
		return w.Destroy()
	},
}

var walletAttachCmd = &cobra.Command{
	Use:   "attach <name> <blockchain>",
	Short: "Bind a wallet to a local blockchain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		bc, err := loadBlockchain(args[1])
		if err != nil {
			return err
		}
		bc.Close()
		return w.Attach(args[1])
	},
}

var walletDetachCmd = &cobra.Command{
	Use:   "detach <name>",
	Short: "Unbind a wallet from its blockchain and drop its log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		return w.Detach()
	},
}

var walletSyncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Scan the attached blockchain for the wallet's outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		bcName, err := w.RequireBlockchain()
		if err != nil {
			return err
		}
		bc, err := loadBlockchain(bcName)
		if err != nil {
			return err
		}
		defer bc.Close()

		l, err := unlockWallet(w)
		if err != nil {
			return err
		}

		lr, err := state.OpenLogReader(w.LogPath())
		if err != nil {
			return err
		}
		s, err := state.FromLogs(l, lr)
		if errors.Is(err, state.ErrNoEntries) {
			s, err = state.New(state.BeforeGenesis(bc.Config().Genesis), l), nil
		}
		if err != nil {
			lr.Close()
			return err
		}
		lw, err := lr.Writer()
		if err != nil {
			return err
		}
		defer lw.Close()

		it, err := bc.IterToTip(s.Ptr().Hash)
		if err != nil {
			return err
		}
		defer it.Close()

		res, err := state.Sync(cmd.Context(), s, it, lw)
		if err != nil {
			return err
		}
		total, err := s.Total()
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d blocks: %d received, %d spent\n", res.Blocks, res.Received, res.Spent)
		fmt.Printf("Wallet at %s, %d UTXOs, total %s\n", s.Ptr(), s.Len(), total)
		return nil
	},
}

var walletStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show the wallet's sync point and balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		s, err := walletState(w)
		if err != nil {
			return err
		}
		total, err := s.Total()
		if err != nil {
			return err
		}
		fmt.Printf("Wallet:     %s (%s)\n", w.Name, w.Scheme())
		fmt.Printf("Blockchain: %s\n", w.Blockchain())
		if s.Ptr().Hash.IsZero() {
			fmt.Println("Synced to:  never synced")
		} else {
			fmt.Printf("Synced to:  %s\n", s.Ptr())
		}
		fmt.Printf("UTXOs:      %d\n", s.Len())
		fmt.Printf("Total:      %s\n", total)
		return nil
	},
}

var walletLogCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Print the wallet's event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		if _, err := w.RequireBlockchain(); err != nil {
			return err
		}
		es, err := state.ReadLog(w.LogPath())
		if err != nil {
			return err
		}
		for _, e := range es {
			fmt.Println(e)
		}
		return nil
	},
}

var walletUTXOsCmd = &cobra.Command{
	Use:   "utxos <name>",
	Short: "List the wallet's unspent outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		s, err := walletState(w)
		if err != nil {
			return err
		}
		t := newTable("Outpoint", "Address", "Path", "Value")
		for _, u := range s.UTXOs() {
			t.AppendRow([]interface{}{u.Outpoint(), u.Address, u.Addressing, u.Value})
		}
		total, err := s.Total()
		if err != nil {
			return err
		}
		t.AppendFooter([]interface{}{"", "", "Total", total})
		t.Render()
		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address <name>",
	Short: "Derive a receiving address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet(args[0])
		if err != nil {
			return err
		}
		account, _ := cmd.Flags().GetUint32("account")
		index, _ := cmd.Flags().GetInt64("index")
		internal, _ := cmd.Flags().GetBool("internal")
		if index >= int64(wallet.HardenedOffset) {
			return fmt.Errorf("index %d out of range", index)
		}

		l, err := unlockWallet(w)
		if err != nil {
			return err
		}
		keys, ok := l.(lookup.Keyring)
		if !ok {
			return fmt.Errorf("wallet %s cannot derive addresses", w.Name)
		}

		var a lookup.Addressing
		switch w.Scheme() {
		case wallet.SchemeBIP44:
			change := uint32(wallet.ChangeExternal)
			if internal {
				change = wallet.ChangeInternal
			}
			if index < 0 {
				next, err := nextExternalIndex(w, account)
				if err != nil {
					return err
				}
				index = int64(next)
			}
			a = lookup.BIP44(account, change, uint32(index))
		case wallet.SchemeRandomIndex:
			if internal {
				return fmt.Errorf("--internal only applies to bip44 wallets")
			}
			if index < 0 {
				var b [4]byte
				if _, err := rand.Read(b[:]); err != nil {
					return err
				}
				index = int64(binary.BigEndian.Uint32(b[:]) % wallet.HardenedOffset)
			}
			a = lookup.RandomIndex(account, uint32(index))
		}

		addr, err := keys.Address(a)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", a, addr)
		return nil
	},
}

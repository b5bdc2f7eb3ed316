package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-cli/internal/coinselect"
	"github.com/Klingon-tech/klingnet-cli/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-cli/internal/staging"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var transactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"tx"},
	Short:   "Build, sign and send transactions offline",
}

func init() {
	for _, c := range []*cobra.Command{transactionStatusCmd, transactionSignCmd, transactionInputSelectCmd} {
		c.Flags().String("blockchain", "", "Use this blockchain's fee instead of the configured one")
	}
	transactionInputSelectCmd.Flags().StringSlice("wallet", nil, "Wallet to take inputs from (repeatable, default: every attached wallet)")
	transactionInputSelectCmd.Flags().Bool("largest-first", false, "Spend the largest outputs first (default)")
	transactionInputSelectCmd.Flags().Bool("first-match", false, "Spend outputs in wallet order")
	transactionInputSelectCmd.Flags().Uint64("blackjack", 0, "Find inputs matching the amount within this threshold, without change")
	transactionInputSelectCmd.MarkFlagsMutuallyExclusive("largest-first", "first-match", "blackjack")

	transactionCmd.AddCommand(
		transactionNewCmd,
		transactionListCmd,
		transactionDestroyCmd,
		transactionAddInputCmd,
		transactionAddOutputCmd,
		transactionAddChangeCmd,
		transactionRmInputCmd,
		transactionRmOutputCmd,
		transactionRmChangeCmd,
		transactionFinalizeCmd,
		transactionSignCmd,
		transactionSendCmd,
		transactionExportCmd,
		transactionImportCmd,
		transactionInputSelectCmd,
		transactionStatusCmd,
	)
}

func loadStaging(arg string) (*staging.Staging, error) {
	id, err := staging.ParseID(arg)
	if err != nil {
		return nil, err
	}
	return staging.Load(cfg.PendingDir(), id)
}

// withStaging loads the staging transaction named by args[0] and
// releases it once fn returns.
func withStaging(args []string, fn func(st *staging.Staging) error) error {
	st, err := loadStaging(args[0])
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func parseOutpoint(s string) (types.Outpoint, error) {
	op, err := types.ParseOutpoint(s)
	if err != nil {
		return types.Outpoint{}, fmt.Errorf("invalid input %q: %w", s, err)
	}
	return op, nil
}

var transactionNewCmd = &cobra.Command{
	Use:   "new <blockchain>",
	Short: "Start a staging transaction for a blockchain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		magic := bc.Config().ProtocolMagic
		bc.Close()

		st, err := staging.New(cfg.PendingDir(), magic)
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Println(st.ID())
		return nil
	},
}

var transactionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staging transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := staging.List(cfg.PendingDir())
		if err != nil {
			return err
		}
		t := newTable("ID", "Inputs", "Outputs", "State")
		for _, id := range ids {
			st, err := staging.Load(cfg.PendingDir(), id)
			if errors.Is(err, staging.ErrInvalidOperation) || errors.Is(err, staging.ErrInvalidMagic) {
				t.AppendRow([]interface{}{id, "-", "-", "corrupted"})
				continue
			}
			if err != nil {
				t.AppendRow([]interface{}{id, "-", "-", "locked"})
				continue
			}
			txn := st.Transaction()
			state := "open"
			switch {
			case txn.Finalized && len(txn.Witnesses) == len(txn.Inputs):
				state = "signed"
			case txn.Finalized:
				state = fmt.Sprintf("finalized (%d/%d signed)", len(txn.Witnesses), len(txn.Inputs))
			}
			t.AppendRow([]interface{}{id, len(txn.Inputs), len(txn.Outputs), state})
			st.Close()
		}
		t.Render()
		return nil
	},
}

var transactionDestroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "Delete a staging transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStaging(args[0])
		if err != nil {
			return err
		}
		return st.Destroy()
	},
}

var transactionAddInputCmd = &cobra.Command{
	Use:   "add-input <id> <txid:index> [value]",
	Short: "Spend an output",
	Long:  "Spend an output. Without a value, the output is looked up in the wallets' synced state.",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := parseOutpoint(args[1])
		if err != nil {
			return err
		}
		var value types.Coin
		if len(args) == 3 {
			if value, err = parseCoin(args[2]); err != nil {
				return err
			}
		} else {
			owned, ok, err := findUTXO(op)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not an output of any synced wallet, give its value", op)
			}
			value = owned.utxo.Value
		}
		return withStaging(args, func(st *staging.Staging) error {
			return st.AddInput(staging.Input{TxID: op.TxID, Index: op.Index, Value: value})
		})
	},
}

var transactionAddOutputCmd = &cobra.Command{
	Use:   "add-output <id> <address> <value>",
	Short: "Pay a value to an address",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		value, err := parseCoin(args[2])
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			return st.AddOutput(tx.Output{Address: addr, Value: value})
		})
	},
}

var transactionAddChangeCmd = &cobra.Command{
	Use:   "add-change <id> <address>",
	Short: "Set the change address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			return st.AddChange(addr)
		})
	},
}

var transactionRmInputCmd = &cobra.Command{
	Use:   "rm-input <id> <txid:index>",
	Short: "Stop spending an output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := parseOutpoint(args[1])
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			return st.RemoveInput(op)
		})
	},
}

var transactionRmOutputCmd = &cobra.Command{
	Use:   "rm-output <id> <address>",
	Short: "Remove every output paying an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			n, err := st.RemoveOutputsFor(addr)
			if err != nil {
				return err
			}
			fmt.Printf("%d outputs removed\n", n)
			return nil
		})
	},
}

var transactionRmChangeCmd = &cobra.Command{
	Use:   "rm-change <id> <address>",
	Short: "Unset the change address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			return st.RemoveChange(addr)
		})
	},
}

var transactionFinalizeCmd = &cobra.Command{
	Use:   "finalize <id>",
	Short: "Close the transaction for edits so it can be signed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStaging(args, func(st *staging.Staging) error {
			return st.Finalize()
		})
	},
}

// walletKeys finds signing keys across every attached wallet, asking
// each wallet's password at most once.
type walletKeys struct {
	unlocked map[string]lookup.Keyring
}

func (k *walletKeys) find(op types.Outpoint) (crypto.Signer, bool, error) {
	owned, ok, err := findUTXO(op)
	if err != nil || !ok {
		return nil, false, err
	}
	keys, ok := k.unlocked[owned.wallet]
	if !ok {
		w, err := loadWallet(owned.wallet)
		if err != nil {
			return nil, false, err
		}
		l, err := unlockWallet(w)
		if err != nil {
			return nil, false, err
		}
		if keys, ok = l.(lookup.Keyring); !ok {
			return nil, false, fmt.Errorf("wallet %s cannot derive keys", w.Name)
		}
		k.unlocked[owned.wallet] = keys
	}
	key, err := keys.Key(owned.utxo.Addressing)
	if err != nil {
		return nil, false, err
	}
	signer, err := key.Signer()
	if err != nil {
		return nil, false, err
	}
	return signer, true, nil
}

var transactionSignCmd = &cobra.Command{
	Use:   "sign <id>",
	Short: "Sign the inputs with the wallets owning them",
	Long: "Sign every unsigned input with the key of the wallet owning it. " +
		"The fee given here must be the one of the blockchain the transaction is sent to.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bcName, _ := cmd.Flags().GetString("blockchain")
		fee, err := feeAlgorithm(bcName)
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			keys := &walletKeys{unlocked: make(map[string]lookup.Keyring)}
			n, err := st.Sign(fee, keys.find)
			if err != nil {
				return err
			}
			fmt.Printf("%d inputs signed\n", n)
			return nil
		})
	},
}

var transactionSendCmd = &cobra.Command{
	Use:   "send <id> <blockchain>",
	Short: "Submit a signed transaction to the blockchain's remotes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[1])
		if err != nil {
			return err
		}
		defer bc.Close()

		return withStaging(args, func(st *staging.Staging) error {
			if st.ProtocolMagic() != bc.Config().ProtocolMagic {
				return fmt.Errorf("transaction is for protocol magic %d, blockchain %s uses %d",
					st.ProtocolMagic(), bc.Name, bc.Config().ProtocolMagic)
			}
			aux, err := st.Transaction().ToTxAux(bc.Config().LinearFee())
			if err != nil {
				return err
			}

			sent := 0
			for _, p := range bc.Peers() {
				txid, err := rpcclient.New(p.Endpoint).SubmitTx(cmd.Context(), aux)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", p.Name, err)
					continue
				}
				fmt.Printf("%s: accepted %s\n", p.Name, txid)
				sent++
			}
			if sent == 0 {
				return fmt.Errorf("transaction not accepted by any remote of %s", bc.Name)
			}
			return nil
		})
	},
}

var transactionExportCmd = &cobra.Command{
	Use:   "export <id> [file]",
	Short: "Write the transaction as YAML to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStaging(args, func(st *staging.Staging) error {
			if len(args) == 1 {
				return staging.WriteExport(os.Stdout, st.Export())
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := staging.WriteExport(f, st.Export()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

var transactionImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Recreate an exported transaction from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		e, err := staging.ReadExport(r)
		if err != nil {
			return err
		}
		st, err := staging.Import(cfg.PendingDir(), e)
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Println(st.ID())
		return nil
	},
}

// walletInputs gathers the unspent outputs of the named wallets, or of
// every attached wallet.
func walletInputs(names []string) ([]coinselect.Input, error) {
	all := len(names) == 0
	if all {
		var err error
		if names, err = wallet.List(cfg.DataDir); err != nil {
			return nil, err
		}
	}
	var inputs []coinselect.Input
	for _, name := range names {
		w, err := loadWallet(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.RequireBlockchain(); err != nil {
			if all {
				continue
			}
			return nil, err
		}
		s, err := walletState(w)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", name, err)
		}
		for _, u := range s.UTXOs() {
			inputs = append(inputs, coinselect.Input{Outpoint: u.Outpoint(), Value: u.Value})
		}
	}
	return inputs, nil
}

var transactionInputSelectCmd = &cobra.Command{
	Use:   "input-select <id>",
	Short: "Choose inputs from wallets to fund the outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var alg coinselect.Algorithm = coinselect.LargestFirst{}
		if firstMatch, _ := cmd.Flags().GetBool("first-match"); firstMatch {
			alg = coinselect.FirstMatchFirst{}
		}
		if cmd.Flags().Changed("blackjack") {
			threshold, _ := cmd.Flags().GetUint64("blackjack")
			alg = coinselect.Blackjack{Threshold: types.Coin(threshold)}
		}
		bcName, _ := cmd.Flags().GetString("blockchain")
		fee, err := feeAlgorithm(bcName)
		if err != nil {
			return err
		}
		names, _ := cmd.Flags().GetStringSlice("wallet")
		inputs, err := walletInputs(names)
		if err != nil {
			return err
		}

		return withStaging(args, func(st *staging.Staging) error {
			res, err := st.InputSelect(alg, fee, inputs)
			if err != nil {
				return err
			}
			t := newTable("Input", "Value")
			for _, in := range res.Selected {
				t.AppendRow([]interface{}{in.Outpoint, in.Value})
			}
			t.AppendFooter([]interface{}{"Fee", res.Fee})
			t.Render()
			return nil
		})
	},
}

var transactionStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the transaction's inputs, outputs and balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bcName, _ := cmd.Flags().GetString("blockchain")
		fee, err := feeAlgorithm(bcName)
		if err != nil {
			return err
		}
		return withStaging(args, func(st *staging.Staging) error {
			status, err := st.Status(fee)
			if err != nil {
				return err
			}
			txn := st.Transaction()

			fmt.Printf("Transaction %s (protocol magic %d)\n", st.ID(), st.ProtocolMagic())
			t := newTable("", "Reference", "Value")
			for _, in := range txn.Inputs {
				t.AppendRow([]interface{}{"input", in.Outpoint(), in.Value})
			}
			for _, out := range status.Outputs {
				t.AppendRow([]interface{}{"output", out.Address, out.Value})
			}
			for _, c := range txn.Changes {
				t.AppendRow([]interface{}{"change", c.Address, ""})
			}
			t.Render()

			fmt.Printf("Input total:  %s\n", status.InputTotal)
			fmt.Printf("Output total: %s\n", status.OutputTotal)
			fmt.Printf("Difference:   %d\n", status.Difference)
			fmt.Printf("Expected fee: %s (%d bytes)\n", status.ExpectedFee, status.Size)
			switch {
			case !txn.Finalized:
				fmt.Println("State:        open")
			case len(txn.Witnesses) < len(txn.Inputs):
				fmt.Printf("State:        finalized, %d/%d inputs signed\n", len(txn.Witnesses), len(txn.Inputs))
			default:
				fmt.Println("State:        signed, ready to send")
			}
			return nil
		})
	},
}

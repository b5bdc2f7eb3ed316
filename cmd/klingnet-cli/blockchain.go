package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-cli/config"
	"github.com/Klingon-tech/klingnet-cli/internal/blockchain"
	"github.com/Klingon-tech/klingnet-cli/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var blockchainCmd = &cobra.Command{
	Use:     "blockchain",
	Aliases: []string{"bc"},
	Short:   "Manage local blockchain mirrors",
}

func init() {
	blockchainNewCmd.Flags().String("template", "", "Network template (default: the configured network)")
	blockchainPullCmd.Flags().Bool("no-forward", false, "Do not move the local tip after pulling")
	blockchainLogCmd.Flags().String("from", "", "Start from this block instead of the tip")
	blockchainLogCmd.Flags().Int("limit", 20, "Number of blocks to show, 0 for all")
	blockchainPackCmd.Flags().Bool("all", false, "Pack every finished epoch not packed yet")

	blockchainCmd.AddCommand(
		blockchainNewCmd,
		blockchainListCmd,
		blockchainDestroyCmd,
		blockchainRemoteAddCmd,
		blockchainRemoteRmCmd,
		blockchainRemoteLsCmd,
		blockchainPullCmd,
		blockchainForwardCmd,
		blockchainLogCmd,
		blockchainCatCmd,
		blockchainStatusCmd,
		blockchainVerifyCmd,
		blockchainPackCmd,
	)
}

var blockchainNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a local mirror from a network template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("template")
		if name == "" {
			name = string(cfg.Network)
		}
		tmpl, err := config.TemplateFor(name)
		if err != nil {
			return err
		}
		bc, err := blockchain.New(cfg.DataDir, args[0], tmpl.Genesis, tmpl.Peers)
		if err != nil {
			return err
		}
		defer bc.Close()
		fmt.Printf("Local blockchain %s created\n", bc.Name)
		fmt.Printf("Genesis: %s\n", bc.Config().Genesis)
		return nil
	},
}

var blockchainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local mirrors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := blockchain.List(cfg.DataDir)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var blockchainDestroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Delete a local mirror and its blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		return bc.Destroy()
	},
}

var blockchainRemoteAddCmd = &cobra.Command{
	Use:   "remote-add <name> <alias> <endpoint>",
	Short: "Add a remote node",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		return bc.AddPeer(args[1], args[2])
	},
}

var blockchainRemoteRmCmd = &cobra.Command{
	Use:   "remote-rm <name> <alias>",
	Short: "Remove a remote node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		return bc.RemovePeer(args[1])
	},
}

var blockchainRemoteLsCmd = &cobra.Command{
	Use:   "remote-ls <name>",
	Short: "List remote nodes and their last known tips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		t := newTable("Alias", "Endpoint", "Tip", "Date")
		for _, p := range bc.Peers() {
			ref, ok, err := bc.RemoteTip(p.Name)
			if err != nil {
				return err
			}
			if !ok {
				t.AppendRow([]interface{}{p.Name, p.Endpoint, "-", "-"})
				continue
			}
			t.AppendRow([]interface{}{p.Name, p.Endpoint, ref.Hash.Short(), ref.Date.String()})
		}
		t.Render()
		return nil
	},
}

var blockchainPullCmd = &cobra.Command{
	Use:   "pull <name> [alias...]",
	Short: "Fetch new blocks from remote nodes",
	Long:  "Fetch new blocks from the given remotes, or every remote, then move the local tip to the most advanced one.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()

		aliases := args[1:]
		if len(aliases) == 0 {
			for _, p := range bc.Peers() {
				aliases = append(aliases, p.Name)
			}
		}
		var failed []error
		for _, alias := range aliases {
			peer, err := bc.Peer(alias)
			if err != nil {
				return err
			}
			n, err := bc.Pull(cmd.Context(), alias, rpcclient.New(peer.Endpoint))
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", alias, err)
				failed = append(failed, fmt.Errorf("%s: %w", alias, err))
				continue
			}
			fmt.Printf("%s: %d new blocks\n", alias, n)
		}
		if len(failed) == len(aliases) && len(failed) > 0 {
			return errors.Join(failed...)
		}

		if noForward, _ := cmd.Flags().GetBool("no-forward"); noForward {
			return nil
		}
		tip, err := bc.Forward(nil)
		if err != nil {
			return err
		}
		fmt.Printf("Local tip: %s\n", tip)
		return nil
	},
}

var blockchainForwardCmd = &cobra.Command{
	Use:   "forward <name> [hash]",
	Short: "Move the local tip to a stored block, or to the best remote tip",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		var to *types.Hash
		if len(args) == 2 {
			h, err := parseHash(args[1])
			if err != nil {
				return err
			}
			to = &h
		}
		tip, err := bc.Forward(to)
		if err != nil {
			return err
		}
		fmt.Printf("Local tip: %s\n", tip)
		return nil
	},
}

var blockchainLogCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Show blocks from the tip backwards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()

		from, _ := cmd.Flags().GetString("from")
		limit, _ := cmd.Flags().GetInt("limit")
		var cur types.Hash
		if from != "" {
			if cur, err = parseHash(from); err != nil {
				return err
			}
		} else {
			tip, _, err := bc.LoadTip()
			if err != nil {
				return err
			}
			cur = tip.Hash
		}

		t := newTable("Date", "Hash", "Txs")
		for shown := 0; limit == 0 || shown < limit; shown++ {
			blk, err := bc.GetBlock(cur)
			if err != nil {
				return err
			}
			t.AppendRow([]interface{}{blk.Date().String(), cur.String(), len(blk.Transactions)})
			if cur == bc.Config().Genesis {
				break
			}
			cur = blk.Header.PrevHash
		}
		t.Render()
		return nil
	},
}

var blockchainCatCmd = &cobra.Command{
	Use:   "cat <name> <hash>",
	Short: "Print a stored block as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		h, err := parseHash(args[1])
		if err != nil {
			return err
		}
		blk, err := bc.GetBlock(h)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(blk)
	},
}

var blockchainStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show the local tip, packed epochs and remotes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()

		c := bc.Config()
		tip, _, err := bc.LoadTip()
		if err != nil {
			return err
		}
		epochs, err := bc.Store().ListEpochs()
		if err != nil {
			return err
		}
		loose, err := bc.Store().LooseCount()
		if err != nil {
			return err
		}
		fmt.Printf("Blockchain:     %s\n", bc.Name)
		fmt.Printf("Protocol magic: %d\n", c.ProtocolMagic)
		fmt.Printf("Genesis:        %s\n", c.Genesis)
		fmt.Printf("Tip:            %s (%s)\n", tip.Hash, tip.Date)
		fmt.Printf("Packed epochs:  %d\n", len(epochs))
		fmt.Printf("Loose blocks:   %d\n", loose)
		fmt.Printf("Remotes:        %d\n", len(c.Peers))
		return nil
	},
}

var blockchainVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Check every block from the tip back to genesis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()
		n, err := bc.Verify(func(e blockchain.VerifyError) {
			fmt.Fprintf(os.Stderr, "invalid %s\n", e.Error())
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d blocks verified\n", n)
		return nil
	},
}

var blockchainPackCmd = &cobra.Command{
	Use:   "pack <name> [epoch]",
	Short: "Move the loose blocks of finished epochs into packs",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadBlockchain(args[0])
		if err != nil {
			return err
		}
		defer bc.Close()

		all, _ := cmd.Flags().GetBool("all")
		var epochs []uint64
		switch {
		case len(args) == 2:
			e, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid epoch %q: %w", args[1], err)
			}
			epochs = append(epochs, e)
		case all:
			tip, _, err := bc.LoadTip()
			if err != nil {
				return err
			}
			for e := bc.Config().EpochStart; e < tip.Date.Epoch; e++ {
				if !bc.Store().HasPack(e) {
					epochs = append(epochs, e)
				}
			}
		default:
			return fmt.Errorf("give an epoch or --all")
		}

		for _, e := range epochs {
			n, err := bc.Pack(e)
			if err != nil {
				return fmt.Errorf("pack epoch %d: %w", e, err)
			}
			fmt.Printf("Epoch %d: %d blocks packed\n", e, n)
		}
		return nil
	},
}

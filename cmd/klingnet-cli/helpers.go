package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-cli/internal/blockchain"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// ── Prompts ─────────────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func readNewPassword() ([]byte, error) {
	password, err := readPassword("Enter spending password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Confirm spending password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if string(password) != string(confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ── Output ──────────────────────────────────────────────────────────────

func newTable(header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

// ── Parsing ─────────────────────────────────────────────────────────────

func parseHash(s string) (types.Hash, error) {
	h, err := types.HexToHash(s)
	if err != nil {
		return types.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

func parseAddress(s string) (types.Address, error) {
	a, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return a, nil
}

func parseCoin(s string) (types.Coin, error) {
	c, err := types.ParseCoin(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return c, nil
}

// ── Shared loaders ──────────────────────────────────────────────────────

func loadBlockchain(name string) (*blockchain.Blockchain, error) {
	return blockchain.Load(cfg.DataDir, name)
}

// feeAlgorithm returns the fee of the named mirror, or the configured
// default when name is empty. Sign and send must agree on it since the
// change output, and so the transaction id, depends on the fee.
func feeAlgorithm(name string) (tx.FeeAlgorithm, error) {
	if name == "" {
		return tx.LinearFee{
			Constant:    types.Coin(cfg.Fee.Constant),
			Coefficient: cfg.Fee.Coefficient,
		}, nil
	}
	bc, err := loadBlockchain(name)
	if err != nil {
		return nil, err
	}
	defer bc.Close()
	return bc.Config().LinearFee(), nil
}

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/state"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

type entries struct {
	es []state.Entry[lookup.Addressing]
}

func (e *entries) Next() (state.Entry[lookup.Addressing], error) {
	if len(e.es) == 0 {
		return state.Entry[lookup.Addressing]{}, io.EOF
	}
	next := e.es[0]
	e.es = e.es[1:]
	return next, nil
}

func loadWallet(name string) (*wallet.Wallet, error) {
	return wallet.Load(cfg.DataDir, name)
}

// unlockWallet asks for the spending password and returns the wallet's
// address lookup.
func unlockWallet(w *wallet.Wallet) (lookup.AddressLookup, error) {
	pw, err := readPassword(fmt.Sprintf("Spending password for %s: ", w.Name))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	root, err := w.RootKey(pw)
	if err != nil {
		return nil, err
	}
	return lookup.ForWallet(w.Scheme(), root, cfg.Wallet.GapLimit)
}

// walletState replays the wallet log without keys. Nothing is locked
// after it returns.
func walletState(w *wallet.Wallet) (*state.State, error) {
	if _, err := w.RequireBlockchain(); err != nil {
		return nil, err
	}
	es, err := state.ReadLog(w.LogPath())
	if err != nil {
		return nil, err
	}
	s, err := state.FromLogs(lookup.Accum{}, &entries{es: es})
	if errors.Is(err, state.ErrNoEntries) {
		return state.New(state.Ptr{}, lookup.Accum{}), nil
	}
	return s, err
}

type ownedUTXO struct {
	wallet string
	utxo   state.UTXO
}

// findUTXO looks op up in the state of every wallet.
func findUTXO(op types.Outpoint) (ownedUTXO, bool, error) {
	names, err := wallet.List(cfg.DataDir)
	if err != nil {
		return ownedUTXO{}, false, err
	}
	for _, name := range names {
		w, err := loadWallet(name)
		if err != nil {
			return ownedUTXO{}, false, err
		}
		if _, err := w.RequireBlockchain(); err != nil {
			continue
		}
		s, err := walletState(w)
		if err != nil {
			return ownedUTXO{}, false, fmt.Errorf("wallet %s: %w", name, err)
		}
		if u, ok := s.UTXO(op); ok {
			return ownedUTXO{wallet: name, utxo: u}, true, nil
		}
	}
	return ownedUTXO{}, false, nil
}

// nextExternalIndex returns the first external index of account after
// every one seen in the wallet log.
func nextExternalIndex(w *wallet.Wallet, account uint32) (uint32, error) {
	es, err := state.ReadLog(w.LogPath())
	if err != nil {
		return 0, err
	}
	var next uint32
	for _, e := range es {
		if e.UTXO == nil {
			continue
		}
		a := e.UTXO.Addressing
		if a.Scheme == lookup.SchemeBIP44 && a.Account == account &&
			a.Change == wallet.ChangeExternal && a.Index >= next {
			next = a.Index + 1
		}
	}
	return next, nil
}

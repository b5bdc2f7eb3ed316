package state

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var (
	// ErrNoEntries is returned by FromLogs for an empty log. The caller
	// starts from New(BeforeGenesis(genesis), lookup) instead.
	ErrNoEntries = errors.New("wallet log has no entries")

	// ErrLogCorrupted is returned when the log spends an unknown output
	// or receives one twice.
	ErrLogCorrupted = errors.New("wallet log is corrupted")
)

// UTXO is an owned output.
type UTXO = lookup.UTXO[lookup.Addressing]

// EntryIterator yields log entries in order, then io.EOF.
type EntryIterator interface {
	Next() (Entry[lookup.Addressing], error)
}

// State is the wallet's view of the chain: the last block accounted for
// and the owned outputs still unspent at that point.
type State struct {
	ptr    Ptr
	lookup lookup.AddressLookup
	utxos  map[types.Outpoint]UTXO
}

// New returns an empty state at ptr.
func New(ptr Ptr, l lookup.AddressLookup) *State {
	return &State{ptr: ptr, lookup: l, utxos: make(map[types.Outpoint]UTXO)}
}

// FromLogs replays a wallet log. Every addressing met is acknowledged so
// that l ends up watching the same window it had when the log was written.
func FromLogs(l lookup.AddressLookup, entries EntryIterator) (*State, error) {
	s := New(Ptr{}, l)
	seen := false
	for {
		e, err := entries.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := s.apply(e); err != nil {
			return nil, err
		}
		seen = true
	}
	if !seen {
		return nil, ErrNoEntries
	}
	return s, nil
}

func (s *State) apply(e Entry[lookup.Addressing]) error {
	switch e.Kind {
	case KindCheckpoint:
	case KindReceived:
		if err := s.lookup.Acknowledge(e.UTXO.Addressing); err != nil {
			return err
		}
		op := e.UTXO.Outpoint()
		if _, dup := s.utxos[op]; dup {
			return fmt.Errorf("%w: %s received twice", ErrLogCorrupted, op)
		}
		s.utxos[op] = *e.UTXO
	case KindSpent:
		op := e.UTXO.Outpoint()
		if _, ok := s.utxos[op]; !ok {
			return fmt.Errorf("%w: %s spent but never received", ErrLogCorrupted, op)
		}
		delete(s.utxos, op)
		if err := s.lookup.Acknowledge(e.UTXO.Addressing); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: entry of %s", ErrLogCorrupted, e.Kind)
	}
	s.ptr = e.Ptr
	return nil
}

// Ptr returns the last block accounted for.
func (s *State) Ptr() Ptr { return s.ptr }

// Lookup returns the address lookup driving the state.
func (s *State) Lookup() lookup.AddressLookup { return s.lookup }

// Len returns the number of owned outputs.
func (s *State) Len() int { return len(s.utxos) }

// UTXO returns the owned output at op.
func (s *State) UTXO(op types.Outpoint) (UTXO, bool) {
	u, ok := s.utxos[op]
	return u, ok
}

// UTXOs returns the owned outputs ordered by outpoint.
func (s *State) UTXOs() []UTXO {
	out := make([]UTXO, 0, len(s.utxos))
	for _, u := range s.utxos {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Outpoint(), out[j].Outpoint()
		if a.TxID != b.TxID {
			return a.TxID.String() < b.TxID.String()
		}
		return a.Index < b.Index
	})
	return out
}

// Total sums the owned outputs.
func (s *State) Total() (types.Coin, error) {
	var total types.Coin
	for _, u := range s.utxos {
		var err error
		if total, err = total.Add(u.Value); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ForwardWithTxIns drops the owned outputs spent by ins and returns the
// matching Spent entries. Nothing is written to the log.
func (s *State) ForwardWithTxIns(ptr Ptr, ins []types.Outpoint) []Entry[lookup.Addressing] {
	var out []Entry[lookup.Addressing]
	for _, op := range ins {
		u, ok := s.utxos[op]
		if !ok {
			continue
		}
		delete(s.utxos, op)
		s.ptr = ptr
		out = append(out, Spent(ptr, u))
	}
	return out
}

// ForwardWithUTXOs looks up each output, keeps the owned ones and returns
// the matching Received entries. Nothing is written to the log.
func (s *State) ForwardWithUTXOs(ptr Ptr, utxos []lookup.UTXO[types.Address]) ([]Entry[lookup.Addressing], error) {
	var out []Entry[lookup.Addressing]
	for _, candidate := range utxos {
		u, err := s.lookup.Lookup(candidate)
		if err != nil {
			return out, err
		}
		if u == nil {
			continue
		}
		op := u.Outpoint()
		if _, dup := s.utxos[op]; dup {
			return out, fmt.Errorf("%w: %s received twice", ErrLogCorrupted, op)
		}
		s.utxos[op] = *u
		s.ptr = ptr
		out = append(out, Received(ptr, *u))
	}
	return out, nil
}

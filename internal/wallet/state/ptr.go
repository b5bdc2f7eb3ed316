// Package state rebuilds a wallet's UTXO set from its event log and
// extends the log from the blocks of the attached blockchain.
package state

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Ptr is the last block the wallet state accounts for. Before genesis
// it holds the genesis hash and no date.
type Ptr struct {
	Hash types.Hash
	Date *block.Date
}

// BeforeGenesis returns the pointer of a wallet that has seen no block.
func BeforeGenesis(genesis types.Hash) Ptr {
	return Ptr{Hash: genesis}
}

// At returns the pointer to a block.
func At(hash types.Hash, date block.Date) Ptr {
	return Ptr{Hash: hash, Date: &date}
}

// BlockDate returns the pointer's date, epoch 0's boundary before genesis.
func (p Ptr) BlockDate() block.Date {
	if p.Date == nil {
		return block.BoundaryDate(0)
	}
	return *p.Date
}

// Synced reports whether the pointer refers to an actual block.
func (p Ptr) Synced() bool {
	return p.Date != nil
}

func (p Ptr) String() string {
	if p.Date == nil {
		return fmt.Sprintf("before %s", p.Hash.Short())
	}
	return fmt.Sprintf("%s (%s)", p.Date, p.Hash.Short())
}

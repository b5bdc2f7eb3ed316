package block

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrNilHeader       = errors.New("block has nil header")
	ErrBadVersion      = errors.New("unsupported block version")
	ErrBadTxRoot       = errors.New("transaction root mismatch")
	ErrBoundaryWithTxs = errors.New("boundary block carries transactions")
)

// CurrentVersion is the block version produced and accepted by this software.
const CurrentVersion = 1

// Validate checks block structure and internal consistency. Consensus
// rules are the node's business, not the client's.
func (b *Block) Validate() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.Version != CurrentVersion {
		return fmt.Errorf("%w: got %d", ErrBadVersion, b.Header.Version)
	}
	if b.Header.Date.IsBoundary() && len(b.Transactions) > 0 {
		return ErrBoundaryWithTxs
	}
	if root := TxRoot(b.Transactions); root != b.Header.TxRoot {
		return fmt.Errorf("%w: header %s, computed %s", ErrBadTxRoot, b.Header.TxRoot.Short(), root.Short())
	}
	for i, t := range b.Transactions {
		if t == nil || t.Tx == nil {
			return fmt.Errorf("tx %d: empty transaction", i)
		}
		if err := t.Tx.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}
	return nil
}

package blockchain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// VerifyError describes one block that failed verification.
type VerifyError struct {
	Hash types.Hash
	Err  error
}

func (e VerifyError) Error() string {
	return fmt.Sprintf("block %s: %v", e.Hash, e.Err)
}

// Verify walks from the local tip back to genesis checking every block:
// structure, network, parent linkage and that the genesis block has the
// configured parent. It returns the number of blocks checked. Problems
// are reported to onError as they are found; any problem makes Verify
// return a *BlockchainInvalidError.
func (bc *Blockchain) Verify(onError func(VerifyError)) (int, error) {
	tip, _, err := bc.LoadTip()
	if err != nil {
		return 0, err
	}

	bad := 0
	report := func(h types.Hash, err error) {
		bad++
		if onError != nil {
			onError(VerifyError{Hash: h, Err: err})
		}
	}

	checked := 0
	cur := tip.Hash
	for {
		blk, err := bc.GetBlock(cur)
		if err != nil {
			// The chain is broken here; nothing further back is reachable.
			report(cur, err)
			break
		}
		checked++
		if got := blk.Hash(); got != cur {
			report(cur, fmt.Errorf("stored block hashes to %s", got))
		}
		if err := blk.Validate(); err != nil {
			report(cur, err)
		}
		if blk.Header.ProtocolMagic != bc.config.ProtocolMagic {
			report(cur, fmt.Errorf("%w: magic %d", ErrWrongNetwork, blk.Header.ProtocolMagic))
		}

		if cur == bc.config.Genesis {
			if blk.Header.PrevHash != bc.config.GenesisPrev {
				report(cur, ErrInvalidGenesisPrevHash)
			}
			break
		}
		prev := blk.Header.PrevHash
		if prev == bc.config.GenesisPrev {
			report(cur, fmt.Errorf("%w: chain reached genesis parent without genesis", ErrInvalidGenesisPrevHash))
			break
		}
		if parent, err := bc.GetBlock(prev); err == nil && parent.Date().Compare(blk.Date()) >= 0 {
			report(cur, fmt.Errorf("date %s does not follow parent date %s", blk.Date(), parent.Date()))
		}
		cur = prev
	}

	if bad > 0 {
		return checked, &BlockchainInvalidError{Count: bad}
	}
	return checked, nil
}

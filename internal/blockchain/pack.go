package blockchain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Pack moves the blocks of a finished epoch on the local chain into a
// pack file. An epoch is finished once the local tip is in a later one.
func (bc *Blockchain) Pack(epoch uint64) (int, error) {
	tip, _, err := bc.LoadTip()
	if err != nil {
		return 0, err
	}
	if tip.Date.Epoch <= epoch {
		return 0, fmt.Errorf("%w: epoch %d, tip in epoch %d", ErrEpochNotFinished, epoch, tip.Date.Epoch)
	}

	var rev []types.Hash
	cur := tip.Hash
	for {
		blk, err := bc.GetBlock(cur)
		if err != nil {
			return 0, err
		}
		e := blk.Date().Epoch
		if e == epoch {
			rev = append(rev, cur)
		}
		if e < epoch || cur == bc.config.Genesis {
			break
		}
		cur = blk.Header.PrevHash
	}

	hashes := make([]types.Hash, len(rev))
	for i, h := range rev {
		hashes[len(rev)-1-i] = h
	}
	if err := bc.store.Pack(epoch, hashes); err != nil {
		return 0, err
	}
	return len(hashes), nil
}

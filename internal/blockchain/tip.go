package blockchain

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/internal/blockstore"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// BlockRef identifies a block and where it sits.
type BlockRef struct {
	Hash   types.Hash
	Parent types.Hash
	Date   block.Date
}

// GenesisRef returns the reference of the genesis block.
func (bc *Blockchain) GenesisRef() BlockRef {
	return BlockRef{
		Hash:   bc.config.Genesis,
		Parent: bc.config.GenesisPrev,
		Date:   block.BoundaryDate(bc.config.EpochStart),
	}
}

func (bc *Blockchain) refFromTag(tag string) (BlockRef, bool, error) {
	hash, err := bc.store.ReadTag(tag)
	if err != nil {
		if errors.Is(err, blockstore.ErrNoSuchTag) {
			return bc.GenesisRef(), true, nil
		}
		return BlockRef{}, false, err
	}
	blk, err := bc.GetBlock(hash)
	if err != nil {
		return BlockRef{}, false, fmt.Errorf("tag %s: %w", tag, err)
	}
	return BlockRef{
		Hash:   hash,
		Parent: blk.Header.PrevHash,
		Date:   blk.Date(),
	}, hash == bc.config.Genesis, nil
}

// LoadTip returns the local tip and whether it is the genesis block. A
// mirror without a tip tag is at genesis.
func (bc *Blockchain) LoadTip() (BlockRef, bool, error) {
	return bc.refFromTag(TipTag)
}

// SaveTip moves the local tip.
func (bc *Blockchain) SaveTip(hash types.Hash) error {
	return bc.store.WriteTag(TipTag, hash)
}

// Forward moves the local tip. With a hash, the tip moves to that block,
// which must be stored locally. Without one, it moves to the most advanced
// remote tip, or stays put when no remote is ahead.
func (bc *Blockchain) Forward(to *types.Hash) (types.Hash, error) {
	if to != nil {
		ok, err := bc.store.Has(*to)
		if err != nil {
			return types.Hash{}, err
		}
		if !ok {
			return types.Hash{}, fmt.Errorf("%w: %s", ErrForwardHashDoesNotExist, to)
		}
		if err := bc.SaveTip(*to); err != nil {
			return types.Hash{}, err
		}
		log.Blockchain.Info().Str("tip", to.Short()).Msg("Forwarded local tip")
		return *to, nil
	}

	best, _, err := bc.LoadTip()
	if err != nil {
		return types.Hash{}, err
	}
	for _, p := range bc.config.Peers {
		ref, _, err := bc.RemoteTip(p.Name)
		if err != nil {
			return types.Hash{}, err
		}
		if ref.Date.Compare(best.Date) > 0 {
			best = ref
		}
	}
	if err := bc.SaveTip(best.Hash); err != nil {
		return types.Hash{}, err
	}
	log.Blockchain.Info().Str("tip", best.Hash.Short()).Str("date", best.Date.String()).Msg("Forwarded local tip")
	return best.Hash, nil
}

package blockchain

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Fetcher is the part of a node client used to fetch blocks.
type Fetcher interface {
	ChainInfo(ctx context.Context) (*rpcclient.ChainInfo, error)
	BlockByHash(ctx context.Context, hash types.Hash) (*block.Block, error)
}

// Pull fetches the blocks the remote alias has and the mirror lacks.
// Starting from the remote tip it walks back through parents until it
// meets a stored block, keeping only the hashes. The missing blocks are
// then fetched again oldest first and stored one by one, so a failure
// leaves a stored prefix that the next pull extends. The remote tag moves
// once every block is stored; the local tip is left alone, see Forward.
func (bc *Blockchain) Pull(ctx context.Context, alias string, client Fetcher) (int, error) {
	if _, err := bc.Peer(alias); err != nil {
		return 0, err
	}
	info, err := client.ChainInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", alias, err)
	}
	if info.ProtocolMagic != bc.config.ProtocolMagic {
		return 0, fmt.Errorf("%w: remote magic %d, local %d", ErrWrongNetwork, info.ProtocolMagic, bc.config.ProtocolMagic)
	}

	var missing []types.Hash
	cur := info.TipHash
	for {
		known, err := bc.store.Has(cur)
		if err != nil {
			return 0, err
		}
		if known {
			break
		}
		if cur == bc.config.GenesisPrev {
			return 0, fmt.Errorf("%w: reached %s", ErrForeignChain, cur.Short())
		}
		blk, err := bc.fetch(ctx, alias, client, cur)
		if err != nil {
			return 0, err
		}
		missing = append(missing, cur)
		cur = blk.Header.PrevHash
	}

	stored := 0
	for i := len(missing) - 1; i >= 0; i-- {
		blk, err := bc.fetch(ctx, alias, client, missing[i])
		if err != nil {
			return stored, err
		}
		raw, err := blk.Encode()
		if err != nil {
			return stored, err
		}
		if _, err := bc.store.PutLoose(raw); err != nil {
			return stored, err
		}
		stored++
		log.Blockchain.Debug().Str("hash", missing[i].Short()).Str("date", blk.Date().String()).Msg("Stored block")
	}
	if err := bc.store.WriteTag(remoteTag(alias), info.TipHash); err != nil {
		return stored, err
	}
	log.Blockchain.Info().
		Str("remote", alias).
		Int("blocks", stored).
		Str("tip", info.TipHash.Short()).
		Msg("Pulled blocks")
	return stored, nil
}

// fetch asks the remote for hash and checks the answer is that block, is
// well formed and belongs to the local network.
func (bc *Blockchain) fetch(ctx context.Context, alias string, client Fetcher, hash types.Hash) (*block.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blk, err := client.BlockByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", hash.Short(), alias, err)
	}
	if got := blk.Hash(); got != hash {
		return nil, fmt.Errorf("%w: asked %s, got %s", ErrBlockHashMismatch, hash.Short(), got.Short())
	}
	if err := blk.Validate(); err != nil {
		return nil, fmt.Errorf("block %s: %w", hash.Short(), err)
	}
	if blk.Header.ProtocolMagic != bc.config.ProtocolMagic {
		return nil, fmt.Errorf("%w: block %s", ErrWrongNetwork, hash.Short())
	}
	return blk, nil
}

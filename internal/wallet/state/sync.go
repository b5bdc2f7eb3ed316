package state

import (
	"context"
	"errors"
	"io"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// BlockIterator yields blocks in chain order, then io.EOF.
type BlockIterator interface {
	Next() (*block.Block, error)
}

// Appender persists log entries.
type Appender interface {
	Append(e Entry[lookup.Addressing]) error
}

// SyncResult summarises a sync run.
type SyncResult struct {
	Blocks   int
	Received int
	Spent    int
}

// Sync feeds blocks to s and appends the resulting entries to out. The
// iterator is expected to start at the state's pointer; that block was
// already accounted for and is skipped. The first block of a new epoch
// is followed by a checkpoint, written after that block's own entries,
// so later syncs resume close to where this one ends.
func Sync(ctx context.Context, s *State, blocks BlockIterator, out Appender) (SyncResult, error) {
	var res SyncResult
	start := s.Ptr()
	last := start.BlockDate()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		blk, err := blocks.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}

		date := blk.Date()
		if start.Synced() && date == *start.Date {
			continue
		}
		ptr := At(blk.Hash(), date)
		res.Blocks++

		epochChanged := date.Epoch != last.Epoch
		last = date

		for _, aux := range blk.Transactions {
			spent := s.ForwardWithTxIns(ptr, aux.Tx.Inputs)
			for _, e := range spent {
				if err := out.Append(e); err != nil {
					return res, err
				}
			}
			res.Spent += len(spent)

			txid := aux.ID()
			candidates := make([]lookup.UTXO[types.Address], len(aux.Tx.Outputs))
			for i, o := range aux.Tx.Outputs {
				candidates[i] = lookup.UTXO[types.Address]{
					TxID:       txid,
					Index:      uint32(i),
					Address:    o.Address,
					Value:      o.Value,
					Addressing: o.Address,
				}
			}
			received, err := s.ForwardWithUTXOs(ptr, candidates)
			for _, e := range received {
				if err := out.Append(e); err != nil {
					return res, err
				}
			}
			res.Received += len(received)
			if err != nil {
				return res, err
			}
		}

		if epochChanged {
			if err := out.Append(Checkpoint[lookup.Addressing](ptr)); err != nil {
				return res, err
			}
			s.ptr = ptr
			log.Sync.Debug().Str("ptr", ptr.String()).Msg("Checkpoint")
		}
	}

	log.Sync.Info().
		Int("blocks", res.Blocks).
		Int("received", res.Received).
		Int("spent", res.Spent).
		Str("ptr", s.Ptr().String()).
		Msg("Wallet synced")
	return res, nil
}

package blockchain

import (
	"errors"
	"fmt"
	"io"

	"github.com/Klingon-tech/klingnet-cli/internal/blockstore"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Iter walks stored blocks in chain order from one block to another,
// both included. It reads packed epochs first and continues with loose
// blocks once the packs are exhausted.
type Iter struct {
	store *blockstore.Store
	from  types.Hash
	to    types.Hash

	started bool
	last    types.Hash
	hasLast bool
	err     error

	// epoch phase
	epochs []uint64
	pack   *blockstore.PackReader

	// loose phase
	loose  bool
	hashes []types.Hash
	pos    int
}

// NewIter prepares an iteration from `from` to `to`. It fails with
// ErrInvalidBlockHash when `from` is not stored.
func NewIter(store *blockstore.Store, from, to types.Hash) (*Iter, error) {
	loc, err := store.Resolve(from)
	if err != nil {
		if errors.Is(err, blockstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBlockHash, from)
		}
		return nil, err
	}

	it := &Iter{store: store, from: from, to: to}
	if !loc.Packed {
		hashes, err := store.LooseRange(from, to)
		if err != nil {
			return nil, err
		}
		it.loose = true
		it.hashes = hashes
		return it, nil
	}

	epochs, err := store.ListEpochs()
	if err != nil {
		return nil, err
	}
	for _, e := range epochs {
		if e >= loc.Epoch {
			it.epochs = append(it.epochs, e)
		}
	}
	return it, nil
}

// Iter iterates the local mirror from `from` to `to`.
func (bc *Blockchain) Iter(from, to types.Hash) (*Iter, error) {
	return NewIter(bc.store, from, to)
}

// IterToTip iterates from `from` to the local tip.
func (bc *Blockchain) IterToTip(from types.Hash) (*Iter, error) {
	tip, _, err := bc.LoadTip()
	if err != nil {
		return nil, err
	}
	return bc.Iter(from, tip.Hash)
}

// Next returns the next block, or io.EOF once `to` has been returned.
// A read or decode failure ends the iteration: every later call returns
// the same error.
func (it *Iter) Next() (*block.Block, error) {
	if it.err != nil {
		return nil, it.err
	}
	blk, err := it.next()
	if err != nil && !errors.Is(err, io.EOF) {
		it.err = err
		it.Close()
	}
	return blk, err
}

func (it *Iter) next() (*block.Block, error) {
	if it.hasLast && it.last == it.to {
		return nil, io.EOF
	}

	if !it.started {
		it.started = true
		for {
			blk, err := it.advance()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %s not found in its epoch", ErrInvalidBlockHash, it.from)
			}
			if err != nil {
				return nil, err
			}
			if it.last == it.from {
				return blk, nil
			}
		}
	}

	blk, err := it.advance()
	if errors.Is(err, io.EOF) && !it.loose {
		if err := it.switchToLoose(); err != nil {
			return nil, err
		}
		return it.next()
	}
	return blk, err
}

// switchToLoose continues after the last packed block. The range starts
// at that block, which was already returned, so it is skipped.
func (it *Iter) switchToLoose() error {
	it.loose = true
	if !it.hasLast {
		return io.EOF
	}
	hashes, err := it.store.LooseRange(it.last, it.to)
	if err != nil {
		return err
	}
	it.hashes = hashes
	it.pos = 1
	return nil
}

func (it *Iter) advance() (*block.Block, error) {
	raw, err := it.nextRaw()
	if err != nil {
		return nil, err
	}
	blk, err := block.Decode(raw)
	if err != nil {
		return nil, err
	}
	it.last = blk.Hash()
	it.hasLast = true
	return blk, nil
}

func (it *Iter) nextRaw() ([]byte, error) {
	if it.loose {
		if it.pos >= len(it.hashes) {
			return nil, io.EOF
		}
		h := it.hashes[it.pos]
		it.pos++
		return it.store.Get(h)
	}

	for {
		if it.pack == nil {
			if len(it.epochs) == 0 {
				return nil, io.EOF
			}
			p, err := it.store.OpenPack(it.epochs[0])
			if err != nil {
				return nil, err
			}
			it.epochs = it.epochs[1:]
			it.pack = p
		}
		raw, err := it.pack.Next()
		if errors.Is(err, io.EOF) {
			it.pack.Close()
			it.pack = nil
			continue
		}
		return raw, err
	}
}

// Close releases an open pack file.
func (it *Iter) Close() error {
	if it.pack != nil {
		err := it.pack.Close()
		it.pack = nil
		return err
	}
	return nil
}

// Package blockstore persists the blocks of a local chain mirror.
//
// Recent blocks are kept loose in a key-value database, keyed by hash.
// Finished epochs are moved into immutable pack files under epoch/, one
// per epoch, holding the epoch's blocks in chain order. A hash index
// records where every known block lives. Named pointers (tags) are plain
// files under tag/.
package blockstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/internal/storage"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var (
	// ErrNotFound is returned when a hash is not in the index.
	ErrNotFound = errors.New("block not found")

	// ErrNotLoose is returned when a loose walk reaches a packed block.
	ErrNotLoose = errors.New("block is not loose")

	// ErrPackOutOfOrder is returned when packing an epoch whose
	// predecessor is still loose.
	ErrPackOutOfOrder = errors.New("epochs must be packed in order")
)

var (
	prefixBlocks = []byte("b/")
	prefixIndex  = []byte("i/")
)

const (
	tagDir   = "tag"
	epochDir = "epoch"
	blockDir = "blocks"
)

// Location says where a block is stored.
type Location struct {
	Packed bool
	Epoch  uint64
	Offset int64
}

func (l Location) String() string {
	if l.Packed {
		return fmt.Sprintf("pack %d @%d", l.Epoch, l.Offset)
	}
	return "loose"
}

func (l Location) encode() []byte {
	buf := make([]byte, 17)
	if l.Packed {
		buf[0] = 1
	}
	binary.BigEndian.PutUint64(buf[1:9], l.Epoch)
	binary.BigEndian.PutUint64(buf[9:17], uint64(l.Offset))
	return buf
}

func decodeLocation(b []byte) (Location, error) {
	if len(b) != 17 || b[0] > 1 {
		return Location{}, fmt.Errorf("invalid location record (%d bytes)", len(b))
	}
	return Location{
		Packed: b[0] == 1,
		Epoch:  binary.BigEndian.Uint64(b[1:9]),
		Offset: int64(binary.BigEndian.Uint64(b[9:17])),
	}, nil
}

// Store is the block storage of one mirror directory.
type Store struct {
	root   string
	db     storage.DB
	blocks *storage.PrefixDB
	index  *storage.PrefixDB
}

// Open opens (creating if needed) the store rooted at dir. Loose blocks
// and the index live in a badger database under dir/blocks.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := storage.NewBadger(filepath.Join(dir, blockDir))
	if err != nil {
		return nil, err
	}
	return New(dir, db)
}

// New builds a store over an already opened database.
func New(dir string, db storage.DB) (*Store, error) {
	for _, sub := range []string{tagDir, epochDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	return &Store{
		root:   dir,
		db:     db,
		blocks: storage.NewPrefixDB(db, prefixBlocks),
		index:  storage.NewPrefixDB(db, prefixIndex),
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Resolve returns the location of hash.
func (s *Store) Resolve(hash types.Hash) (Location, error) {
	raw, err := s.index.Get(hash[:])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Location{}, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return Location{}, err
	}
	return decodeLocation(raw)
}

// Has reports whether hash is known.
func (s *Store) Has(hash types.Hash) (bool, error) {
	return s.index.Has(hash[:])
}

// ReadBlock returns the raw bytes of the block at loc.
func (s *Store) ReadBlock(loc Location, hash types.Hash) ([]byte, error) {
	if loc.Packed {
		return s.readPacked(loc, hash)
	}
	raw, err := s.blocks.Get(hash[:])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: loose %s", ErrNotFound, hash)
		}
		return nil, err
	}
	return raw, nil
}

// Get resolves hash and reads its block.
func (s *Store) Get(hash types.Hash) ([]byte, error) {
	loc, err := s.Resolve(hash)
	if err != nil {
		return nil, err
	}
	return s.ReadBlock(loc, hash)
}

// PutLoose stores a raw block as loose and indexes it. Storing a block
// that is already known is a no-op.
func (s *Store) PutLoose(raw []byte) (types.Hash, error) {
	blk, err := block.Decode(raw)
	if err != nil {
		return types.Hash{}, err
	}
	hash := blk.Hash()
	known, err := s.Has(hash)
	if err != nil {
		return hash, err
	}
	if known {
		return hash, nil
	}

	batch := s.newBatch()
	batch.Put(key(prefixBlocks, hash), raw)
	batch.Put(key(prefixIndex, hash), Location{}.encode())
	if err := batch.Commit(); err != nil {
		return hash, fmt.Errorf("store block %s: %w", hash, err)
	}
	log.Storage.Debug().Str("hash", hash.Short()).Str("date", blk.Date().String()).Msg("Stored loose block")
	return hash, nil
}

// LooseCount returns the number of loose blocks.
func (s *Store) LooseCount() (int, error) {
	return s.blocks.Count()
}

func key(prefix []byte, hash types.Hash) []byte {
	k := make([]byte, 0, len(prefix)+types.HashSize)
	return append(append(k, prefix...), hash[:]...)
}

func (s *Store) newBatch() storage.Batch {
	if b, ok := s.db.(storage.Batcher); ok {
		return b.NewBatch()
	}
	return storage.NewPrefixDB(s.db, nil).NewBatch()
}

// LooseRange returns the hashes from `from` to `to`, both included, in
// chain order. It walks back from `to` through PrevHash links; every
// block after `from` must be loose.
func (s *Store) LooseRange(from, to types.Hash) ([]types.Hash, error) {
	var rev []types.Hash
	cur := to
	for {
		rev = append(rev, cur)
		if cur == from {
			break
		}
		loc, err := s.Resolve(cur)
		if err != nil {
			return nil, err
		}
		if loc.Packed {
			return nil, fmt.Errorf("%w: %s while walking back to %s", ErrNotLoose, cur, from)
		}
		raw, err := s.ReadBlock(loc, cur)
		if err != nil {
			return nil, err
		}
		blk, err := block.Decode(raw)
		if err != nil {
			return nil, err
		}
		cur = blk.Header.PrevHash
	}

	out := make([]types.Hash, len(rev))
	for i, h := range rev {
		out[len(rev)-1-i] = h
	}
	return out, nil
}

package blockstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-cli/internal/appendlog"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

const packExt = ".pack"

func (s *Store) packPath(epoch uint64) string {
	return filepath.Join(s.root, epochDir, strconv.FormatUint(epoch, 10)+packExt)
}

// ListEpochs returns the packed epochs in ascending order.
func (s *Store) ListEpochs() ([]uint64, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, epochDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var epochs []uint64
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), packExt)
		if !ok || e.IsDir() {
			continue
		}
		n, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			continue
		}
		epochs = append(epochs, n)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })
	return epochs, nil
}

// HasPack reports whether epoch is packed.
func (s *Store) HasPack(epoch uint64) bool {
	_, err := os.Stat(s.packPath(epoch))
	return err == nil
}

// PackReader reads the blocks of one pack in chain order.
type PackReader struct {
	epoch uint64
	file  *os.File
	r     *bufio.Reader
}

// OpenPack opens the pack of epoch for sequential reading.
func (s *Store) OpenPack(epoch uint64) (*PackReader, error) {
	f, err := os.Open(s.packPath(epoch))
	if err != nil {
		return nil, fmt.Errorf("open pack %d: %w", epoch, err)
	}
	return &PackReader{epoch: epoch, file: f, r: bufio.NewReader(f)}, nil
}

// Epoch returns the epoch of the pack.
func (p *PackReader) Epoch() uint64 {
	return p.epoch
}

// Next returns the next raw block, or io.EOF after the last one.
func (p *PackReader) Next() ([]byte, error) {
	raw, err := appendlog.ReadRecord(p.r)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pack %d: %w", p.epoch, err)
	}
	return raw, err
}

// Close closes the pack file.
func (p *PackReader) Close() error {
	return p.file.Close()
}

func (s *Store) readPacked(loc Location, hash types.Hash) ([]byte, error) {
	f, err := os.Open(s.packPath(loc.Epoch))
	if err != nil {
		return nil, fmt.Errorf("open pack %d: %w", loc.Epoch, err)
	}
	defer f.Close()
	if _, err := f.Seek(loc.Offset, io.SeekStart); err != nil {
		return nil, err
	}
	raw, err := appendlog.ReadRecord(f)
	if err != nil {
		return nil, fmt.Errorf("pack %d offset %d: %w", loc.Epoch, loc.Offset, err)
	}
	return raw, nil
}

// Pack moves the loose blocks listed in hashes, which must be the whole
// of epoch in chain order, into the epoch's pack file. The pack is
// written to a temporary file and renamed into place before the index is
// switched over and the loose copies are dropped.
func (s *Store) Pack(epoch uint64, hashes []types.Hash) error {
	if len(hashes) == 0 {
		return fmt.Errorf("epoch %d has no blocks to pack", epoch)
	}
	if s.HasPack(epoch) {
		return fmt.Errorf("epoch %d is already packed", epoch)
	}
	if epoch > 0 {
		packed, err := s.ListEpochs()
		if err != nil {
			return err
		}
		if len(packed) != int(epoch) {
			return fmt.Errorf("%w: epoch %d with %d epochs packed", ErrPackOutOfOrder, epoch, len(packed))
		}
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, epochDir), ".pack-*")
	if err != nil {
		return fmt.Errorf("create pack %d: %w", epoch, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	locs := make([]Location, len(hashes))
	var offset int64
	for i, hash := range hashes {
		raw, err := s.ReadBlock(Location{}, hash)
		if err != nil {
			tmp.Close()
			return err
		}
		blk, err := block.Decode(raw)
		if err != nil {
			tmp.Close()
			return err
		}
		if blk.Date().Epoch != epoch {
			tmp.Close()
			return fmt.Errorf("block %s is in epoch %d, not %d", hash, blk.Date().Epoch, epoch)
		}
		if err := appendlog.WriteRecord(w, raw); err != nil {
			tmp.Close()
			return err
		}
		locs[i] = Location{Packed: true, Epoch: epoch, Offset: offset}
		offset += int64(appendlog.HeaderSize + len(raw))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.packPath(epoch)); err != nil {
		return fmt.Errorf("install pack %d: %w", epoch, err)
	}

	batch := s.newBatch()
	for i, hash := range hashes {
		batch.Put(key(prefixIndex, hash), locs[i].encode())
		batch.Delete(key(prefixBlocks, hash))
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("reindex epoch %d: %w", epoch, err)
	}
	log.Storage.Info().Uint64("epoch", epoch).Int("blocks", len(hashes)).Msg("Packed epoch")
	return nil
}

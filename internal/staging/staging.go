// Package staging keeps transactions under construction. Each staging
// transaction is an append-only file of edit operations; the transaction
// itself is rebuilt by replaying them.
package staging

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Klingon-tech/klingnet-cli/internal/appendlog"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Dir is the staging directory name under the data directory.
const Dir = "pending"

var fileMagic = []byte("TRANSACTION_V1")

// File errors.
var (
	ErrNotFound             = errors.New("staging transaction not found")
	ErrExists               = errors.New("staging transaction already exists")
	ErrNoMagic              = errors.New("staging file has no magic")
	ErrInvalidMagic         = errors.New("not a staging transaction file")
	ErrMissingProtocolMagic = errors.New("staging file has no protocol magic")
	ErrInvalidOperation     = errors.New("invalid staging operation")
)

// Operation errors.
var (
	ErrDoubleSpend       = errors.New("input already used in the transaction")
	ErrAlreadyFinalized  = errors.New("transaction is already finalized")
	ErrNotFinalized      = errors.New("transaction is not finalized")
	ErrMoreThanOneChange = errors.New("only one change address is supported")
	ErrInputNotFound     = errors.New("input not found")
	ErrOutputNotFound    = errors.New("output not found")
	ErrChangeNotFound    = errors.New("change address not found")
	ErrTooManyWitnesses  = errors.New("every input already has a witness")
	ErrNoChangeAddress   = errors.New("add a change address first")
)

// ID names a staging transaction.
type ID = uuid.UUID

// ParseID parses the textual form of an ID.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid staging id %q: %w", s, err)
	}
	return id, nil
}

// Staging is an open staging transaction. It holds the file's lock until
// Close or Destroy.
type Staging struct {
	id    ID
	magic uint32
	path  string
	ops   []Operation
	tx    Transaction
	w     *appendlog.Writer
}

func filePath(root string, id ID) string {
	return filepath.Join(root, id.String())
}

// New creates an empty staging transaction for the network identified by
// protocolMagic.
func New(root string, protocolMagic uint32) (*Staging, error) {
	return create(root, uuid.New(), protocolMagic)
}

func create(root string, id ID, protocolMagic uint32) (*Staging, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	path := filePath(root, id)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}
	lock, err := appendlog.NewLock(path)
	if err != nil {
		return nil, err
	}
	w, err := appendlog.OpenWriter(lock)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if err := w.Append(fileMagic); err != nil {
		w.Close().Unlock()
		return nil, err
	}
	if err := w.Append(binary.BigEndian.AppendUint32(nil, protocolMagic)); err != nil {
		w.Close().Unlock()
		return nil, err
	}
	log.Staging.Debug().Str("id", id.String()).Uint32("magic", protocolMagic).Msg("Staging transaction created")
	return &Staging{id: id, magic: protocolMagic, path: path, w: w}, nil
}

// Load locks the staging transaction id and replays its operations.
func Load(root string, id ID) (*Staging, error) {
	path := filePath(root, id)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	lock, err := appendlog.NewLock(path)
	if err != nil {
		return nil, err
	}
	r, err := appendlog.OpenReader(lock)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	s, err := replay(r)
	if err != nil {
		r.Close().Unlock()
		return nil, fmt.Errorf("load staging %s: %w", id, err)
	}
	w, err := appendlog.OpenWriter(r.Close())
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	s.id, s.path, s.w = id, path, w
	return s, nil
}

func replay(r *appendlog.Reader) (*Staging, error) {
	magic, err := r.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoMagic
	}
	if err != nil {
		return nil, err
	}
	if string(magic) != string(fileMagic) {
		return nil, fmt.Errorf("%w: got %x", ErrInvalidMagic, magic)
	}
	pm, err := r.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingProtocolMagic
	}
	if err != nil {
		return nil, err
	}
	if len(pm) != 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMissingProtocolMagic, len(pm))
	}

	s := &Staging{magic: binary.BigEndian.Uint32(pm)}
	for {
		raw, err := r.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		op, err := DecodeOperation(raw)
		if err != nil {
			return nil, err
		}
		if err := s.tx.Apply(op); err != nil {
			return nil, fmt.Errorf("%w: operation %d: %v", ErrInvalidOperation, len(s.ops), err)
		}
		s.ops = append(s.ops, op)
	}
}

// List returns the ids of the staging transactions under root.
func List(root string) ([]ID, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []ID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, ".lock") {
			continue
		}
		id, err := uuid.Parse(name)
		if err != nil {
			log.Staging.Warn().Str("file", name).Msg("Unexpected file in staging directory")
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// ID returns the staging transaction's id.
func (s *Staging) ID() ID { return s.id }

// ProtocolMagic returns the network the transaction is built for.
func (s *Staging) ProtocolMagic() uint32 { return s.magic }

// Operations returns the edits applied so far.
func (s *Staging) Operations() []Operation { return s.ops }

// Transaction returns the current projection.
func (s *Staging) Transaction() *Transaction { return &s.tx }

// Finalized reports whether the transaction is closed for edits.
func (s *Staging) Finalized() bool { return s.tx.Finalized }

// Close releases the file lock.
func (s *Staging) Close() error {
	return s.w.Close().Unlock()
}

// Destroy deletes the staging transaction.
func (s *Staging) Destroy() error {
	lock := s.w.Close()
	err := os.Remove(s.path)
	if uerr := lock.Unlock(); err == nil {
		err = uerr
	}
	os.Remove(appendlog.LockPath(s.path))
	if err == nil {
		log.Staging.Debug().Str("id", s.id.String()).Msg("Staging transaction destroyed")
	}
	return err
}

// apply writes op to the file, then updates the projection.
func (s *Staging) apply(op Operation) error {
	if err := s.tx.Check(op); err != nil {
		return err
	}
	raw, err := op.Encode()
	if err != nil {
		return err
	}
	if err := s.w.Append(raw); err != nil {
		return err
	}
	if err := s.tx.Apply(op); err != nil {
		return err
	}
	s.ops = append(s.ops, op)
	return nil
}

// AddInput spends an output the caller expects to carry in.Value.
func (s *Staging) AddInput(in Input) error {
	return s.apply(Operation{Kind: OpAddInput, Input: in})
}

// AddOutput pays out.Value to out.Address.
func (s *Staging) AddOutput(out tx.Output) error {
	return s.apply(Operation{Kind: OpAddOutput, Output: out})
}

// AddChange sets the change address.
func (s *Staging) AddChange(addr types.Address) error {
	return s.apply(Operation{Kind: OpAddChange, Change: Change{Address: addr}})
}

// RemoveInput drops the input spending op.
func (s *Staging) RemoveInput(op types.Outpoint) error {
	return s.apply(Operation{Kind: OpRemoveInput, Outpoint: op})
}

// RemoveOutput drops the output at index.
func (s *Staging) RemoveOutput(index uint32) error {
	return s.apply(Operation{Kind: OpRemoveOutput, Index: index})
}

// RemoveOutputsFor drops every output paying addr and returns how many
// were removed.
func (s *Staging) RemoveOutputsFor(addr types.Address) (int, error) {
	removed := 0
	for i := 0; i < len(s.tx.Outputs); {
		if s.tx.Outputs[i].Address != addr {
			i++
			continue
		}
		if err := s.RemoveOutput(uint32(i)); err != nil {
			return removed, err
		}
		removed++
	}
	if removed == 0 {
		return 0, fmt.Errorf("%w: no output pays %s", ErrOutputNotFound, addr)
	}
	return removed, nil
}

// RemoveChange unsets the change address.
func (s *Staging) RemoveChange(addr types.Address) error {
	return s.apply(Operation{Kind: OpRemoveChange, Change: Change{Address: addr}})
}

// Finalize closes the transaction for edits. Signatures can then be added.
func (s *Staging) Finalize() error {
	return s.apply(Operation{Kind: OpFinalize})
}

// AddSignature appends the witness of the next unsigned input.
func (s *Staging) AddSignature(w tx.Witness) error {
	return s.apply(Operation{Kind: OpSignature, Witness: w})
}

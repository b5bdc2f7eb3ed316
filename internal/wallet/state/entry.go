package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var (
	// ErrUnsupportedLogFormat is returned for records without the EVT1 magic.
	ErrUnsupportedLogFormat = errors.New("unsupported wallet log format")
	// ErrMalformedEntry is returned for EVT1 records that do not decode.
	ErrMalformedEntry = errors.New("malformed wallet log entry")
)

var entryMagic = [4]byte{'E', 'V', 'T', '1'}

// entryHeaderSize is magic(4) | hash(32) | epoch(8) | slot(8) | kind(4) | reserved(8).
const entryHeaderSize = 4 + types.HashSize + 8 + 8 + 4 + 8

// Kind tells what an entry records.
type Kind uint32

const (
	KindCheckpoint Kind = 1
	KindReceived   Kind = 2
	KindSpent      Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindCheckpoint:
		return "checkpoint"
	case KindReceived:
		return "received"
	case KindSpent:
		return "spent"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// Entry is one wallet log event. UTXO is nil for checkpoints.
type Entry[A any] struct {
	Kind Kind
	Ptr  Ptr
	UTXO *lookup.UTXO[A]
}

// Checkpoint records that the wallet has seen every block up to ptr.
func Checkpoint[A any](ptr Ptr) Entry[A] {
	return Entry[A]{Kind: KindCheckpoint, Ptr: ptr}
}

// Received records a new owned output.
func Received[A any](ptr Ptr, u lookup.UTXO[A]) Entry[A] {
	return Entry[A]{Kind: KindReceived, Ptr: ptr, UTXO: &u}
}

// Spent records that an owned output was consumed.
func Spent[A any](ptr Ptr, u lookup.UTXO[A]) Entry[A] {
	return Entry[A]{Kind: KindSpent, Ptr: ptr, UTXO: &u}
}

func (e Entry[A]) String() string {
	if e.UTXO == nil {
		return fmt.Sprintf("%s at %s", e.Kind, e.Ptr)
	}
	return fmt.Sprintf("%s at %s: %s value %s", e.Kind, e.Ptr, e.UTXO.Outpoint(), e.UTXO.Value)
}

// Encode returns the binary record of e. Integers are big endian and the
// UTXO, when present, follows the header as YAML.
func (e Entry[A]) Encode() ([]byte, error) {
	switch e.Kind {
	case KindCheckpoint:
	case KindReceived, KindSpent:
		if e.UTXO == nil {
			return nil, fmt.Errorf("%s entry without utxo", e.Kind)
		}
	default:
		return nil, fmt.Errorf("cannot encode entry of %s", e.Kind)
	}

	date := e.Ptr.BlockDate()
	buf := make([]byte, 0, entryHeaderSize+128)
	buf = append(buf, entryMagic[:]...)
	buf = append(buf, e.Ptr.Hash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, date.Epoch)
	buf = binary.BigEndian.AppendUint64(buf, date.Slot)
	buf = binary.BigEndian.AppendUint32(buf, uint32(e.Kind))
	buf = binary.BigEndian.AppendUint64(buf, 0)
	if e.UTXO == nil {
		return buf, nil
	}
	body, err := yaml.Marshal(e.UTXO)
	if err != nil {
		return nil, fmt.Errorf("encode utxo: %w", err)
	}
	return append(buf, body...), nil
}

// DecodeEntry parses a record written by Encode.
func DecodeEntry[A any](raw []byte) (Entry[A], error) {
	if len(raw) < len(entryMagic) || !bytes.Equal(raw[:4], entryMagic[:]) {
		return Entry[A]{}, fmt.Errorf("%w: magic %x", ErrUnsupportedLogFormat, raw[:min(4, len(raw))])
	}
	if len(raw) < entryHeaderSize {
		return Entry[A]{}, fmt.Errorf("%w: %d bytes", ErrMalformedEntry, len(raw))
	}
	var hash types.Hash
	copy(hash[:], raw[4:36])
	date := block.Date{
		Epoch: binary.BigEndian.Uint64(raw[36:44]),
		Slot:  binary.BigEndian.Uint64(raw[44:52]),
	}
	kind := Kind(binary.BigEndian.Uint32(raw[52:56]))
	if reserved := binary.BigEndian.Uint64(raw[56:64]); reserved != 0 {
		return Entry[A]{}, fmt.Errorf("%w: reserved field is %d", ErrMalformedEntry, reserved)
	}
	e := Entry[A]{Kind: kind, Ptr: At(hash, date)}
	body := raw[entryHeaderSize:]

	switch kind {
	case KindCheckpoint:
		return e, nil
	case KindReceived, KindSpent:
		var u lookup.UTXO[A]
		if err := yaml.Unmarshal(body, &u); err != nil {
			return Entry[A]{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}
		e.UTXO = &u
		return e, nil
	}
	return Entry[A]{}, fmt.Errorf("%w: unknown %s", ErrMalformedEntry, kind)
}

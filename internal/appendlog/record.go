package appendlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ccoveille/go-safecast"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
)

const (
	// HeaderSize is the size of the length and checksum prefix.
	HeaderSize = 8

	// MaxRecordSize bounds a single payload.
	MaxRecordSize = 64 << 20
)

// ErrCorruptedRecord is returned when a record is truncated or its
// checksum does not match the payload.
var ErrCorruptedRecord = errors.New("corrupted record")

// WriteRecord frames payload and writes it to w in a single Write call.
func WriteRecord(w io.Writer, payload []byte) error {
	n, err := safecast.ToUint32(len(payload))
	if err != nil || n > MaxRecordSize {
		return fmt.Errorf("record of %d bytes exceeds maximum %d", len(payload), MaxRecordSize)
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], n)
	sum := crypto.Checksum(payload)
	copy(buf[4:8], sum[:])
	copy(buf[HeaderSize:], payload)
	_, err = w.Write(buf)
	return err
}

// ReadRecord reads the next record from r. It returns io.EOF when r is
// exhausted at a record boundary.
func ReadRecord(r io.Reader) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorruptedRecord)
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[0:4])
	if n > MaxRecordSize {
		return nil, fmt.Errorf("%w: length %d exceeds maximum", ErrCorruptedRecord, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorruptedRecord)
		}
		return nil, err
	}
	if sum := crypto.Checksum(payload); [4]byte(hdr[4:8]) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptedRecord)
	}
	return payload, nil
}

package block

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Header contains block metadata.
type Header struct {
	Version       uint32     `json:"version"`
	ProtocolMagic uint32     `json:"protocol_magic"`
	PrevHash      types.Hash `json:"prev_hash"`
	Date          Date       `json:"date"`
	TxRoot        types.Hash `json:"tx_root"`
}

// Hash computes the block header hash.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical bytes for hashing.
// Format: version(4) | protocol_magic(4) | prev_hash(32) | epoch(8) | slot(8) | tx_root(32)
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 88)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = binary.LittleEndian.AppendUint32(buf, h.ProtocolMagic)
	buf = append(buf, h.PrevHash[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Date.Epoch)
	buf = binary.LittleEndian.AppendUint64(buf, h.Date.Slot)
	buf = append(buf, h.TxRoot[:]...)
	return buf
}

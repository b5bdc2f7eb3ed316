// Package tx defines transactions, witnesses, the linear fee model and the
// builder used to assemble transactions offline.
package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Output credits a value to an address.
type Output struct {
	Address types.Address `json:"address" yaml:"address"`
	Value   types.Coin    `json:"value" yaml:"value"`
}

// Transaction spends previous outputs and creates new ones.
// Witnesses are carried separately (see TxAux) so the id never depends on them.
type Transaction struct {
	Inputs  []types.Outpoint `json:"inputs" yaml:"inputs"`
	Outputs []Output         `json:"outputs" yaml:"outputs"`
}

// Hash computes the transaction ID (BLAKE3 hash of the signing bytes).
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for hashing.
// Format: input_count(4) | [txid(32) index(4)]... | output_count(4) | [addr_len(2) addr value(8)]...
func (tx *Transaction) SigningBytes() []byte {
	buf := make([]byte, 0, 8+36*len(tx.Inputs)+40*len(tx.Outputs))

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.Index)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		addr := out.Address.Bytes()
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(addr)))
		buf = append(buf, addr...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(out.Value))
	}
	return buf
}

// TotalOutputValue returns the sum of all output values.
func (tx *Transaction) TotalOutputValue() (types.Coin, error) {
	var total types.Coin
	for i, out := range tx.Outputs {
		var err error
		if total, err = total.Add(out.Value); err != nil {
			return 0, fmt.Errorf("output %d: %w", i, err)
		}
	}
	return total, nil
}

// TxAux is a transaction together with one witness per input.
type TxAux struct {
	Tx        *Transaction `json:"tx" yaml:"tx"`
	Witnesses []Witness    `json:"witnesses" yaml:"witnesses"`
}

// ID returns the id of the wrapped transaction.
func (a *TxAux) ID() types.Hash {
	return a.Tx.Hash()
}

// Bytes returns the full serialized form that is broadcast and charged for.
// Format: signing_bytes | witness_count(4) | [pubkey(33) signature(64)]...
func (a *TxAux) Bytes() []byte {
	buf := a.Tx.SigningBytes()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(a.Witnesses)))
	for _, w := range a.Witnesses {
		buf = append(buf, w.PubKey...)
		buf = append(buf, w.Signature...)
	}
	return buf
}

// Size is the length of Bytes.
func (a *TxAux) Size() int {
	return len(a.Bytes())
}

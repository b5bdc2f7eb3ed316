// Package block defines blocks, block dates and the block codec.
package block

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// ErrDecode is returned when raw bytes are not a valid block.
var ErrDecode = errors.New("cannot decode block")

// Block is a header and the transactions it confirms.
type Block struct {
	Header       *Header     `json:"header"`
	Transactions []*tx.TxAux `json:"transactions"`
}

// NewBlock creates a block and fills in the transaction root.
func NewBlock(header *Header, txs []*tx.TxAux) *Block {
	header.TxRoot = TxRoot(txs)
	return &Block{Header: header, Transactions: txs}
}

// Hash returns the header hash.
func (b *Block) Hash() types.Hash {
	return b.Header.Hash()
}

// Date returns the header date.
func (b *Block) Date() Date {
	return b.Header.Date
}

// Encode serializes the block for storage and transfer.
func (b *Block) Encode() ([]byte, error) {
	return json.Marshal(b)
}

// Decode parses bytes produced by Encode.
func Decode(raw []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b.Header == nil {
		return nil, fmt.Errorf("%w: missing header", ErrDecode)
	}
	return &b, nil
}

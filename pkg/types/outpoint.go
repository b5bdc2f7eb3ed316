package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Outpoint references a specific output in a transaction.
type Outpoint struct {
	TxID  Hash   `json:"txid" yaml:"txid"`
	Index uint32 `json:"index" yaml:"index"`
}

// String returns "txid:index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}

// ParseOutpoint parses the "txid:index" form produced by String.
func ParseOutpoint(s string) (Outpoint, error) {
	txid, idx, ok := strings.Cut(s, ":")
	if !ok {
		return Outpoint{}, fmt.Errorf("invalid outpoint %q: expected <txid>:<index>", s)
	}
	h, err := HexToHash(txid)
	if err != nil {
		return Outpoint{}, fmt.Errorf("invalid outpoint %q: %w", s, err)
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("invalid outpoint index %q: %w", idx, err)
	}
	return Outpoint{TxID: h, Index: uint32(index)}, nil
}

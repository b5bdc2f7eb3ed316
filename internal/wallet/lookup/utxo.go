package lookup

import "github.com/Klingon-tech/klingnet-cli/pkg/types"

// UTXO is an unspent output. A is how the credited address is known: a
// raw chain address before lookup, an Addressing after.
type UTXO[A any] struct {
	TxID       types.Hash    `yaml:"txid"`
	Index      uint32        `yaml:"index"`
	Address    types.Address `yaml:"address"`
	Value      types.Coin    `yaml:"value"`
	Addressing A             `yaml:"addressing"`
}

// Outpoint returns the output's reference.
func (u UTXO[A]) Outpoint() types.Outpoint {
	return types.Outpoint{TxID: u.TxID, Index: u.Index}
}

// WithAddressing returns u tagged with b instead of its current addressing.
func WithAddressing[A, B any](u UTXO[A], b B) UTXO[B] {
	return UTXO[B]{
		TxID:       u.TxID,
		Index:      u.Index,
		Address:    u.Address,
		Value:      u.Value,
		Addressing: b,
	}
}

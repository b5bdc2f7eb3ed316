package block

import (
	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// TxRoot is the merkle root over the ids of txs.
func TxRoot(txs []*tx.TxAux) types.Hash {
	ids := make([]types.Hash, len(txs))
	for i, t := range txs {
		ids[i] = t.ID()
	}
	return MerkleRoot(ids)
}

// MerkleRoot computes a pairwise BLAKE3 merkle root. An odd layer
// duplicates its last element; no hashes give the zero hash.
func MerkleRoot(hashes []types.Hash) types.Hash {
	if len(hashes) == 0 {
		return types.Hash{}
	}
	level := append([]types.Hash(nil), hashes...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0:0]
		for i := 0; i < len(level); i += 2 {
			next = append(next, crypto.HashConcat(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

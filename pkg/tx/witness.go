package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Witness proves ownership of one input.
type Witness struct {
	PubKey    types.HexBytes `json:"pubkey" yaml:"pubkey"`
	Signature types.HexBytes `json:"signature" yaml:"signature"`
}

// SignatureHash is the message signed by witnesses. Binding the protocol
// magic keeps a witness from being replayed on another network.
func SignatureHash(protocolMagic uint32, txid types.Hash) types.Hash {
	var buf [4 + types.HashSize]byte
	binary.BigEndian.PutUint32(buf[:4], protocolMagic)
	copy(buf[4:], txid[:])
	return crypto.Hash(buf[:])
}

// NewWitness signs txid for the given network.
func NewWitness(signer crypto.Signer, protocolMagic uint32, txid types.Hash) (Witness, error) {
	msg := SignatureHash(protocolMagic, txid)
	sig, err := signer.Sign(msg[:])
	if err != nil {
		return Witness{}, fmt.Errorf("sign tx %s: %w", txid.Short(), err)
	}
	return Witness{PubKey: signer.PublicKey(), Signature: sig}, nil
}

// FakeWitness has the exact size of a real witness. Fee estimates computed
// with fake witnesses match the fee of the signed transaction.
func FakeWitness() Witness {
	return Witness{
		PubKey:    make([]byte, crypto.PublicKeySize),
		Signature: make([]byte, crypto.SignatureSize),
	}
}

// Verify checks the signature and that the public key owns addr.
func (w Witness) Verify(protocolMagic uint32, txid types.Hash, addr types.Address) bool {
	if !crypto.AddressMatches(w.PubKey, addr) {
		return false
	}
	msg := SignatureHash(protocolMagic, txid)
	return crypto.VerifySignature(msg[:], w.Signature, w.PubKey)
}

// Package crypto provides the hashing and signature primitives used by the
// client: BLAKE3 content hashes and Schnorr signatures over secp256k1.
package crypto

import (
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	return Hash(buf[:])
}

// Checksum returns the first four bytes of the BLAKE3 hash of data.
func Checksum(data []byte) [4]byte {
	h := Hash(data)
	var c [4]byte
	copy(c[:], h[:4])
	return c
}

// AddressFromPubKey derives a plain address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	return AddressWithPayload(pubKey, nil)
}

// AddressWithPayload derives an address that commits to a payload.
// Key hash = BLAKE3(compressed_pubkey | payload)[:20].
func AddressWithPayload(pubKey, payload []byte) types.Address {
	hasher := blake3.New()
	hasher.Write(pubKey)
	hasher.Write(payload)
	var kh [types.AddressHashSize]byte
	copy(kh[:], hasher.Sum(nil))
	return types.NewAddress(kh, payload)
}

// AddressMatches reports whether pubKey owns addr.
func AddressMatches(pubKey []byte, addr types.Address) bool {
	return AddressWithPayload(pubKey, addr.Payload()) == addr
}

package lookup

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

const (
	payloadKeySalt       = "address-hashing"
	payloadKeyIterations = 500

	pathSize = 8
	// PayloadSize is nonce | sealed(account | index).
	PayloadSize = chacha20poly1305.NonceSizeX + pathSize + chacha20poly1305.Overhead
)

// Random recognises random-index addresses, whose payload carries their
// own derivation path encrypted under a key only the wallet can compute.
type Random struct {
	root *wallet.HDKey
	key  []byte
}

// NewRandom builds a lookup over root.
func NewRandom(root *wallet.HDKey) (*Random, error) {
	key := pbkdf2.Key(root.PublicKeyBytes(), []byte(payloadKeySalt), payloadKeyIterations, chacha20poly1305.KeySize, sha512.New)
	if _, err := chacha20poly1305.NewX(key); err != nil {
		return nil, fmt.Errorf("payload cipher: %w", err)
	}
	return &Random{root: root, key: key}, nil
}

// encryptPath returns the payload for account/index. The nonce is derived
// from the key and path so an address is stable across calls.
func (r *Random) encryptPath(account, index uint32) []byte {
	aead, _ := chacha20poly1305.NewX(r.key)
	var path [pathSize]byte
	binary.BigEndian.PutUint32(path[:4], account)
	binary.BigEndian.PutUint32(path[4:], index)

	seed := crypto.Hash(append(append([]byte(nil), r.key...), path[:]...))
	nonce := seed[:chacha20poly1305.NonceSizeX]

	out := make([]byte, 0, PayloadSize)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, path[:], nil)
}

// decryptPath returns the path in payload, or false when the payload is
// not one of ours.
func (r *Random) decryptPath(payload []byte) (account, index uint32, ok bool) {
	if len(payload) != PayloadSize {
		return 0, 0, false
	}
	aead, _ := chacha20poly1305.NewX(r.key)
	nonce := payload[:chacha20poly1305.NonceSizeX]
	plain, err := aead.Open(nil, nonce, payload[chacha20poly1305.NonceSizeX:], nil)
	if err != nil || len(plain) != pathSize {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(plain[:4]), binary.BigEndian.Uint32(plain[4:]), true
}

// NewAddress returns the address at m/account'/index'.
func (r *Random) NewAddress(account, index uint32) (types.Address, error) {
	return r.Address(RandomIndex(account, index))
}

// Lookup implements AddressLookup.
func (r *Random) Lookup(utxo UTXO[types.Address]) (*UTXO[Addressing], error) {
	account, index, ok := r.decryptPath(utxo.Address.Payload())
	if !ok {
		return nil, nil
	}
	a := RandomIndex(account, index)
	key, err := r.Key(a)
	if err != nil {
		return nil, err
	}
	if rebuilt := key.AddressWithPayload(utxo.Address.Payload()); rebuilt != utxo.Address {
		log.Wallet.Debug().
			Str("credited", utxo.Address.String()).
			Str("rebuilt", rebuilt.String()).
			Msg("Address mismatch")
		return nil, fmt.Errorf("%w: %s at %s", ErrCannotReconstructAddress, utxo.Address, a)
	}
	u := WithAddressing(utxo, a)
	return &u, nil
}

// Acknowledge implements AddressLookup. Random addresses describe
// themselves, so there is nothing to track.
func (r *Random) Acknowledge(Addressing) error { return nil }

// Key implements Keyring.
func (r *Random) Key(a Addressing) (*wallet.HDKey, error) {
	if a.Scheme != SchemeRandomIndex {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddressing, a)
	}
	return r.root.DeriveRandomIndex(a.Account, a.Index)
}

// Address implements Keyring.
func (r *Random) Address(a Addressing) (types.Address, error) {
	key, err := r.Key(a)
	if err != nil {
		return types.Address{}, err
	}
	return key.AddressWithPayload(r.encryptPath(a.Account, a.Index)), nil
}

package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressHashSize is the length of the key hash at the front of every address.
const AddressHashSize = 20

// MaxAddressPayload bounds the optional payload carried after the key hash.
const MaxAddressPayload = 255

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "kgx"
	TestnetHRP = "tkgx"
)

// activeHRP is the address HRP used by String().
// Set once at startup via SetAddressHRP(). Default is mainnet.
var activeHRP = MainnetHRP

// SetAddressHRP sets the active address HRP (call once at startup).
func SetAddressHRP(hrp string) {
	activeHRP = hrp
}

// Address is a 160-bit public key hash, optionally followed by an opaque
// payload. Random-index wallets store their encrypted derivation path in
// the payload. Address is comparable and can be used as a map key.
type Address struct {
	hash    [AddressHashSize]byte
	payload string
}

// NewAddress builds an address from a key hash and an optional payload.
func NewAddress(hash [AddressHashSize]byte, payload []byte) Address {
	return Address{hash: hash, payload: string(payload)}
}

// AddressFromBytes decodes the binary form produced by Bytes.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) < AddressHashSize {
		return Address{}, fmt.Errorf("address must be at least %d bytes, got %d", AddressHashSize, len(b))
	}
	if len(b)-AddressHashSize > MaxAddressPayload {
		return Address{}, fmt.Errorf("address payload too large: %d bytes", len(b)-AddressHashSize)
	}
	var a Address
	copy(a.hash[:], b[:AddressHashSize])
	a.payload = string(b[AddressHashSize:])
	return a, nil
}

// IsZero returns true for the zero address (zero hash, no payload).
func (a Address) IsZero() bool {
	return a == Address{}
}

// KeyHash returns the public key hash part of the address.
func (a Address) KeyHash() [AddressHashSize]byte {
	return a.hash
}

// Payload returns a copy of the payload, nil if there is none.
func (a Address) Payload() []byte {
	if a.payload == "" {
		return nil
	}
	return []byte(a.payload)
}

// HasPayload reports whether the address carries a payload.
func (a Address) HasPayload() bool {
	return a.payload != ""
}

// Bytes returns the binary form: hash(20) | payload.
func (a Address) Bytes() []byte {
	b := make([]byte, 0, AddressHashSize+len(a.payload))
	b = append(b, a.hash[:]...)
	return append(b, a.payload...)
}

// Equal compares the binary forms of two addresses.
func (a Address) Equal(o Address) bool {
	return bytes.Equal(a.Bytes(), o.Bytes())
}

// String returns the bech32-encoded address (e.g. "kgx1...").
func (a Address) String() string {
	s, err := Bech32Encode(activeHRP, a.Bytes())
	if err != nil {
		return activeHRP + ":" + a.Hex()
	}
	return s
}

// Hex returns the raw hex-encoded binary form without prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Bytes())
}

// MarshalText encodes the address in bech32.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts anything ParseAddress accepts.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a bech32 or hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// ParseAddress parses a bech32 ("kgx1...", "tkgx1...") or raw hex address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	if strings.HasPrefix(s, MainnetHRP+"1") || strings.HasPrefix(s, TestnetHRP+"1") {
		_, data, err := Bech32Decode(s)
		if err != nil {
			return Address{}, fmt.Errorf("invalid bech32 address %q: %w", s, err)
		}
		return AddressFromBytes(data)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return AddressFromBytes(decoded)
}

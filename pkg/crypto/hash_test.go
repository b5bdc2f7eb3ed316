package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

func TestHash(t *testing.T) {
	// BLAKE3-256 of the empty input.
	want, _ := hex.DecodeString("af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262")
	if got := Hash(nil); string(got[:]) != string(want) {
		t.Errorf("Hash(nil) = %x", got)
	}
	if Hash([]byte("block A")) == Hash([]byte("block B")) {
		t.Error("different inputs produced the same hash")
	}
}

func TestHashConcat(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))

	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	if got := HashConcat(a, b); got != Hash(buf[:]) {
		t.Errorf("HashConcat = %x, want hash of both halves", got)
	}
	if HashConcat(a, b) == HashConcat(b, a) {
		t.Error("HashConcat must depend on order")
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("record payload")
	c := Checksum(data)
	h := Hash(data)
	if c != [4]byte{h[0], h[1], h[2], h[3]} {
		t.Errorf("Checksum = %x, want prefix of %x", c, h)
	}
	if Checksum([]byte("record payloaD")) == c {
		t.Error("checksum should change with the data")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	addr := AddressFromPubKey(key.PublicKey())
	h := Hash(key.PublicKey())
	kh := addr.KeyHash()
	if string(kh[:]) != string(h[:types.AddressHashSize]) {
		t.Error("plain address key hash should be the hash prefix of the key")
	}
	if addr.HasPayload() || key.Address() != addr {
		t.Errorf("unexpected plain address %s", addr)
	}
}

func TestAddressWithPayload(t *testing.T) {
	key, _ := GenerateKey()
	pub := key.PublicKey()

	a := AddressWithPayload(pub, []byte{1, 2, 3})
	b := AddressWithPayload(pub, []byte{1, 2, 4})
	if a.KeyHash() == b.KeyHash() {
		t.Error("key hash must commit to the payload")
	}
	if !AddressMatches(pub, a) || !AddressMatches(pub, b) {
		t.Error("AddressMatches should accept the owning key")
	}

	other, _ := GenerateKey()
	if AddressMatches(other.PublicKey(), a) {
		t.Error("AddressMatches should reject a foreign key")
	}
	forged := types.NewAddress(a.KeyHash(), []byte{1, 2, 4})
	if AddressMatches(pub, forged) {
		t.Error("AddressMatches should reject a swapped payload")
	}
}

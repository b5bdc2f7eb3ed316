package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func testKeyHash(seed byte) [AddressHashSize]byte {
	var h [AddressHashSize]byte
	for i := range h {
		h[i] = seed + byte(i)
	}
	return h
}

func TestAddress_Bytes(t *testing.T) {
	a := NewAddress(testKeyHash(1), nil)
	if len(a.Bytes()) != AddressHashSize {
		t.Fatalf("plain address length = %d", len(a.Bytes()))
	}
	if a.HasPayload() || a.Payload() != nil {
		t.Error("plain address should have no payload")
	}

	b := NewAddress(testKeyHash(1), []byte{9, 9, 9})
	if len(b.Bytes()) != AddressHashSize+3 {
		t.Fatalf("payload address length = %d", len(b.Bytes()))
	}
	if a == b || a.Equal(b) {
		t.Error("addresses with different payloads must differ")
	}

	back, err := AddressFromBytes(b.Bytes())
	if err != nil {
		t.Fatalf("AddressFromBytes: %v", err)
	}
	if back != b {
		t.Error("AddressFromBytes round trip mismatch")
	}
}

func TestAddressFromBytes_Bounds(t *testing.T) {
	if _, err := AddressFromBytes(make([]byte, 19)); err == nil {
		t.Error("short address should fail")
	}
	if _, err := AddressFromBytes(make([]byte, AddressHashSize+MaxAddressPayload+1)); err == nil {
		t.Error("oversized payload should fail")
	}
}

func TestParseAddress(t *testing.T) {
	a := NewAddress(testKeyHash(7), []byte("payload"))

	s := a.String()
	if !strings.HasPrefix(s, MainnetHRP+"1") {
		t.Fatalf("String() = %s", s)
	}
	got, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(bech32): %v", err)
	}
	if got != a {
		t.Error("bech32 round trip mismatch")
	}

	got, err = ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("ParseAddress(hex): %v", err)
	}
	if got != a {
		t.Error("hex round trip mismatch")
	}

	for _, bad := range []string{"", "kgx1zzzz", "nothex"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Errorf("ParseAddress(%q) should fail", bad)
		}
	}
}

func TestAddress_JSON(t *testing.T) {
	a := NewAddress(testKeyHash(3), nil)
	data, err := json.Marshal(map[string]Address{"a": a})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]Address
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["a"] != a {
		t.Error("JSON round trip mismatch")
	}
}

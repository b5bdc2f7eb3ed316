package crypto

import (
	"bytes"
	"testing"
)

func TestSignVerify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if len(key.PublicKey()) != PublicKeySize {
		t.Fatalf("public key is %d bytes", len(key.PublicKey()))
	}

	msg := Hash([]byte("witness message"))
	sig, err := key.Sign(msg[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Fatalf("signature is %d bytes", len(sig))
	}
	if !VerifySignature(msg[:], sig, key.PublicKey()) {
		t.Fatal("valid signature rejected")
	}

	other := Hash([]byte("other message"))
	if VerifySignature(other[:], sig, key.PublicKey()) {
		t.Error("signature verified against the wrong message")
	}
	stranger, _ := GenerateKey()
	if VerifySignature(msg[:], sig, stranger.PublicKey()) {
		t.Error("signature verified against the wrong key")
	}
	bad := bytes.Clone(sig)
	bad[10] ^= 0xff
	if VerifySignature(msg[:], bad, key.PublicKey()) {
		t.Error("corrupted signature verified")
	}
	if VerifySignature(msg[:], sig[:10], key.PublicKey()) || VerifySignature(msg[:], sig, []byte{2, 1}) {
		t.Error("malformed input verified")
	}
}

func TestSignRejectsBadHash(t *testing.T) {
	key, _ := GenerateKey()
	if _, err := key.Sign([]byte("short")); err == nil {
		t.Error("Sign() accepted a message that is not a hash")
	}
}

func TestPrivateKeyFromBytes(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	a, err := PrivateKeyFromBytes(secret)
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes() error: %v", err)
	}
	b, _ := PrivateKeyFromBytes(secret)
	if !bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Error("same secret gave different keys")
	}
	if _, err := PrivateKeyFromBytes(secret[:31]); err == nil {
		t.Error("31-byte secret accepted")
	}

	var s Signer = a
	msg := Hash([]byte("through the interface"))
	sig, err := s.Sign(msg[:])
	if err != nil || !VerifySignature(msg[:], sig, s.PublicKey()) {
		t.Errorf("Signer round trip failed: %v", err)
	}
}

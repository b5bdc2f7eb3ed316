package wallet

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// testMaster returns the master key of the BIP-39 test vector
// "abandon" x11 + "about" with recovery password "TREZOR".
func testMaster(t *testing.T) *HDKey {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	return master
}

func TestNewMasterKey(t *testing.T) {
	master := testMaster(t)
	if !master.IsPrivate() || master.Depth() != 0 {
		t.Fatalf("master: private=%v depth=%d", master.IsPrivate(), master.Depth())
	}
	if n := len(master.PrivateKeyBytes()); n != 32 {
		t.Errorf("private key length = %d, want 32", n)
	}
	if n := len(master.PublicKeyBytes()); n != crypto.PublicKeySize {
		t.Errorf("public key length = %d, want %d", n, crypto.PublicKeySize)
	}

	for _, n := range []int{0, 32, 128} {
		if _, err := NewMasterKey(make([]byte, n)); err == nil {
			t.Errorf("NewMasterKey(%d bytes) should fail", n)
		}
	}
}

func TestDerivePath(t *testing.T) {
	master := testMaster(t)

	c1, _ := master.DeriveChild(PurposeBIP44)
	c2, _ := c1.DeriveChild(CoinTypeKlingnet)
	combined, err := master.DerivePath(PurposeBIP44, CoinTypeKlingnet)
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}
	if !bytes.Equal(c2.PrivateKeyBytes(), combined.PrivateKeyBytes()) {
		t.Error("DerivePath should equal sequential DeriveChild")
	}
}

func TestDeriveAddress(t *testing.T) {
	master := testMaster(t)

	key, err := master.DeriveAddress(0, ChangeExternal, 0)
	if err != nil {
		t.Fatalf("DeriveAddress() error: %v", err)
	}
	if key.Depth() != 5 {
		t.Errorf("address key depth = %d, want 5", key.Depth())
	}

	acct, _ := master.DeriveAccount(0)
	viaAccount, _ := acct.DerivePath(ChangeExternal, 0)
	if key.Address() != viaAccount.Address() {
		t.Error("DeriveAddress should go through DeriveAccount")
	}

	other, _ := master.DeriveAddress(1, ChangeExternal, 0)
	change, _ := master.DeriveAddress(0, ChangeInternal, 0)
	if key.Address() == other.Address() || key.Address() == change.Address() {
		t.Error("account and change should change the address")
	}
}

func TestDeriveRandomIndex(t *testing.T) {
	master := testMaster(t)

	key, err := master.DeriveRandomIndex(3, 7)
	if err != nil {
		t.Fatalf("DeriveRandomIndex() error: %v", err)
	}
	if key.Depth() != 2 {
		t.Errorf("depth = %d, want 2", key.Depth())
	}
	again, _ := master.DeriveRandomIndex(3, 7)
	if !bytes.Equal(key.PrivateKeyBytes(), again.PrivateKeyBytes()) {
		t.Error("derivation should be deterministic")
	}

	// Hardened: the neutered master cannot derive it.
	if _, err := master.Neuter().DeriveRandomIndex(3, 7); err == nil {
		t.Error("public key should not derive hardened children")
	}
}

func TestAddressWithPayload(t *testing.T) {
	key, _ := testMaster(t).DeriveRandomIndex(0, 0)

	plain := key.Address()
	withPayload := key.AddressWithPayload([]byte("payload"))
	if plain == withPayload {
		t.Fatal("payload should change the address")
	}
	if !crypto.AddressMatches(key.PublicKeyBytes(), withPayload) {
		t.Error("key should own its payload address")
	}
	if string(withPayload.Payload()) != "payload" {
		t.Errorf("payload = %q", withPayload.Payload())
	}
}

func TestNeuter(t *testing.T) {
	master := testMaster(t)
	pub := master.Neuter()

	if pub.IsPrivate() || pub.PrivateKeyBytes() != nil {
		t.Error("neutered key should not expose a private key")
	}
	if !bytes.Equal(master.PublicKeyBytes(), pub.PublicKeyBytes()) {
		t.Error("neutered key should keep the public key")
	}
	if _, err := pub.Signer(); err == nil {
		t.Error("Signer() from public key should fail")
	}

	privChild, _ := master.DeriveChild(0)
	pubChild, err := pub.DeriveChild(0)
	if err != nil {
		t.Fatalf("DeriveChild from public key error: %v", err)
	}
	if !bytes.Equal(privChild.PublicKeyBytes(), pubChild.PublicKeyBytes()) {
		t.Error("public derivation should match private derivation")
	}
}

func TestSigner(t *testing.T) {
	key, _ := testMaster(t).DeriveAddress(0, ChangeExternal, 0)

	signer, err := key.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	hash := crypto.Hash([]byte("test message"))
	sig, err := signer.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !crypto.VerifySignature(hash[:], sig, signer.PublicKey()) {
		t.Error("signature from HD-derived key should verify")
	}
	if signer.Address() != key.Address() {
		t.Error("signer and key should agree on the address")
	}
}

func TestGenerateMnemonic(t *testing.T) {
	for _, words := range []int{12, 24} {
		m, err := GenerateMnemonic(words)
		if err != nil {
			t.Fatalf("GenerateMnemonic(%d) error: %v", words, err)
		}
		if got := len(bytes.Fields([]byte(m))); got != words {
			t.Errorf("GenerateMnemonic(%d) has %d words", words, got)
		}
		if !ValidateMnemonic(m) {
			t.Errorf("generated mnemonic is invalid: %q", m)
		}
	}
	if _, err := GenerateMnemonic(13); err == nil {
		t.Error("GenerateMnemonic(13) should fail")
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	a, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	if len(a) != SeedSize {
		t.Fatalf("seed length = %d", len(a))
	}

	messy := "  ABANDON abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon about \n"
	b, err := SeedFromMnemonic(messy, "")
	if err != nil {
		t.Fatalf("normalized mnemonic rejected: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("whitespace and case should not change the seed")
	}

	c, _ := SeedFromMnemonic(testMnemonic, "other")
	if bytes.Equal(a, c) {
		t.Error("recovery password should change the seed")
	}

	if _, err := SeedFromMnemonic("abandon abandon abandon", ""); err != ErrInvalidMnemonic {
		t.Errorf("short mnemonic error = %v", err)
	}
}

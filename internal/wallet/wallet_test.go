package wallet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
)

func testSeedBytes(t *testing.T) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}

func TestCreateAndLoad(t *testing.T) {
	root := t.TempDir()
	seed := testSeedBytes(t)

	if _, err := Create(root, "main", SchemeBIP44, seed, []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := Create(root, "main", SchemeBIP44, seed, []byte("pw"), fastParams()); !errors.Is(err, ErrWalletExists) {
		t.Fatalf("duplicate Create() = %v", err)
	}

	w, err := Load(root, "main")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if w.Scheme() != SchemeBIP44 || w.Blockchain() != "" {
		t.Errorf("loaded scheme=%s blockchain=%q", w.Scheme(), w.Blockchain())
	}
	got, err := w.Seed([]byte("pw"))
	if err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Error("decrypted seed differs")
	}
	if _, err := w.RootKey([]byte("nope")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("RootKey(wrong) = %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir(), "ghost"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("Load() = %v, want ErrWalletNotFound", err)
	}
	if _, err := Load(t.TempDir(), "../x"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Load(../x) = %v, want ErrInvalidName", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "w", Scheme("daedalus"), testSeedBytes(t), nil, fastParams()); err == nil {
		t.Error("unknown scheme should fail")
	}
	if _, err := Create(root, "w", SchemeBIP44, make([]byte, 16), nil, fastParams()); err == nil {
		t.Error("short seed should fail")
	}
}

func TestAttachDetach(t *testing.T) {
	root := t.TempDir()
	w, err := Create(root, "main", SchemeRandomIndex, testSeedBytes(t), []byte("pw"), fastParams())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.RequireBlockchain(); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("RequireBlockchain() = %v", err)
	}
	if err := w.Detach(); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("Detach() while detached = %v", err)
	}
	if err := w.Attach("testnet"); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	if err := w.Attach("mainnet"); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("second Attach() = %v", err)
	}

	reloaded, _ := Load(root, "main")
	if name, err := reloaded.RequireBlockchain(); err != nil || name != "testnet" {
		t.Fatalf("attached blockchain = %q, %v", name, err)
	}

	if err := os.WriteFile(reloaded.LogPath(), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Detach(); err != nil {
		t.Fatalf("Detach() error: %v", err)
	}
	if _, err := os.Stat(reloaded.LogPath()); !os.IsNotExist(err) {
		t.Error("Detach should delete the log")
	}
	again, _ := Load(root, "main")
	if again.Blockchain() != "" {
		t.Errorf("blockchain after detach = %q", again.Blockchain())
	}
}

func TestListAndDestroy(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b", "a"} {
		if _, err := Create(root, name, SchemeBIP44, testSeedBytes(t), nil, fastParams()); err != nil {
			t.Fatal(err)
		}
	}
	// Stray directories without wallet.json are not wallets.
	if err := os.MkdirAll(Directory(root, "junk"), 0o700); err != nil {
		t.Fatal(err)
	}

	names, err := List(root)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(names) != "[a b]" {
		t.Fatalf("List() = %v", names)
	}

	w, _ := Load(root, "a")
	if err := w.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	names, _ = List(root)
	if fmt.Sprint(names) != "[b]" {
		t.Fatalf("List() after destroy = %v", names)
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range []string{"bip44", "rindex"} {
		if _, err := ParseScheme(s); err != nil {
			t.Errorf("ParseScheme(%q) = %v", s, err)
		}
	}
	if _, err := ParseScheme("BIP44"); err == nil {
		t.Error("ParseScheme is case sensitive")
	}
}

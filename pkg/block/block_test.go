package block

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

func testTxAux(t *testing.T, value types.Coin) *tx.TxAux {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	transaction := &tx.Transaction{
		Inputs:  []types.Outpoint{{TxID: types.Hash{byte(value)}}},
		Outputs: []tx.Output{{Address: key.Address(), Value: value}},
	}
	w, err := tx.NewWitness(key, 1, transaction.Hash())
	if err != nil {
		t.Fatal(err)
	}
	return &tx.TxAux{Tx: transaction, Witnesses: []tx.Witness{w}}
}

func TestBlock_EncodeDecode(t *testing.T) {
	b := NewBlock(&Header{
		Version:  CurrentVersion,
		PrevHash: types.Hash{0xaa},
		Date:     Date{Epoch: 3, Slot: 17},
	}, []*tx.TxAux{testTxAux(t, 10), testTxAux(t, 20)})

	raw, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Hash() != b.Hash() {
		t.Error("hash changed across encode/decode")
	}
	if got.Transactions[1].ID() != b.Transactions[1].ID() {
		t.Error("transaction changed across encode/decode")
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, raw := range []string{"", "{", "{}", `{"header":null}`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q) = %v, want ErrDecode", raw, err)
		}
	}
}

func TestValidate(t *testing.T) {
	b := NewBlock(&Header{Version: CurrentVersion, Date: Date{Epoch: 1, Slot: 1}}, []*tx.TxAux{testTxAux(t, 5)})
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	b.Header.TxRoot = types.Hash{1}
	if err := b.Validate(); !errors.Is(err, ErrBadTxRoot) {
		t.Errorf("expected ErrBadTxRoot, got %v", err)
	}

	boundary := NewBlock(&Header{Version: CurrentVersion, Date: BoundaryDate(2)}, []*tx.TxAux{testTxAux(t, 5)})
	if err := boundary.Validate(); !errors.Is(err, ErrBoundaryWithTxs) {
		t.Errorf("expected ErrBoundaryWithTxs, got %v", err)
	}

	old := NewBlock(&Header{Version: 0}, nil)
	if err := old.Validate(); !errors.Is(err, ErrBadVersion) {
		t.Errorf("expected ErrBadVersion, got %v", err)
	}
}

func TestMerkleRoot(t *testing.T) {
	if !MerkleRoot(nil).IsZero() {
		t.Error("empty root should be zero")
	}
	a, b, c := types.Hash{1}, types.Hash{2}, types.Hash{3}
	if MerkleRoot([]types.Hash{a}) != a {
		t.Error("single root should be the hash itself")
	}
	want := crypto.HashConcat(crypto.HashConcat(a, b), crypto.HashConcat(c, c))
	if got := MerkleRoot([]types.Hash{a, b, c}); got != want {
		t.Errorf("MerkleRoot = %s, want %s", got, want)
	}
}

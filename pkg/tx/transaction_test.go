package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

func testAddress(t *testing.T) (*crypto.PrivateKey, types.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key, key.Address()
}

func testTx(t *testing.T) *Transaction {
	t.Helper()
	_, addr := testAddress(t)
	return &Transaction{
		Inputs:  []types.Outpoint{{TxID: types.Hash{0x01}, Index: 0}},
		Outputs: []Output{{Address: addr, Value: 900}},
	}
}

func TestTransaction_Hash_Deterministic(t *testing.T) {
	tx := testTx(t)
	if tx.Hash() != tx.Hash() {
		t.Error("hash is not deterministic")
	}
}

func TestTransaction_Hash_ChangesWithContent(t *testing.T) {
	tx := testTx(t)
	h1 := tx.Hash()
	tx.Outputs[0].Value++
	if tx.Hash() == h1 {
		t.Error("hash should change with output value")
	}
	tx.Inputs[0].Index = 7
	if tx.Hash() == h1 {
		t.Error("hash should change with inputs")
	}
}

func TestTransaction_TotalOutputValue(t *testing.T) {
	_, addr := testAddress(t)
	tx := &Transaction{Outputs: []Output{{addr, 100}, {addr, 250}}}
	total, err := tx.TotalOutputValue()
	if err != nil || total != 350 {
		t.Fatalf("TotalOutputValue = %d, %v", total, err)
	}

	tx.Outputs = append(tx.Outputs, Output{addr, types.MaxCoin})
	if _, err := tx.TotalOutputValue(); err == nil {
		t.Error("expected overflow")
	}
}

func TestTxAux_SizeMatchesFakeWitness(t *testing.T) {
	key, addr := testAddress(t)
	tx := &Transaction{
		Inputs:  []types.Outpoint{{TxID: types.Hash{0x02}}},
		Outputs: []Output{{Address: addr, Value: 5}},
	}
	w, err := NewWitness(key, 42, tx.Hash())
	if err != nil {
		t.Fatalf("NewWitness: %v", err)
	}
	signed := &TxAux{Tx: tx, Witnesses: []Witness{w}}
	fake := &TxAux{Tx: tx, Witnesses: []Witness{FakeWitness()}}
	if signed.Size() != fake.Size() {
		t.Errorf("signed size %d != fake size %d", signed.Size(), fake.Size())
	}
	if signed.ID() != tx.Hash() {
		t.Error("TxAux.ID should be the transaction hash")
	}
}

func TestWitness_Verify(t *testing.T) {
	key, addr := testAddress(t)
	txid := types.Hash{0x09}

	w, err := NewWitness(key, 1, txid)
	if err != nil {
		t.Fatalf("NewWitness: %v", err)
	}
	if !w.Verify(1, txid, addr) {
		t.Error("witness should verify")
	}
	if w.Verify(2, txid, addr) {
		t.Error("witness must not verify under another protocol magic")
	}
	if w.Verify(1, types.Hash{0x0a}, addr) {
		t.Error("witness must not verify another transaction")
	}
	_, other := testAddress(t)
	if w.Verify(1, txid, other) {
		t.Error("witness must not verify for an address it does not own")
	}
}

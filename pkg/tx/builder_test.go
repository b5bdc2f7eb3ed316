package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

func TestBuilder_AddChange(t *testing.T) {
	_, dest := testAddress(t)
	_, change := testAddress(t)
	alg := LinearFee{Constant: 10, Coefficient: 1000}

	b := NewBuilder().
		AddInput(types.Outpoint{TxID: types.Hash{1}}, 1000).
		AddOutput(Output{Address: dest, Value: 500})

	added, err := b.AddChange(alg, change)
	if err != nil {
		t.Fatalf("AddChange: %v", err)
	}
	if len(added) != 1 || added[0].Address != change {
		t.Fatalf("expected one change output, got %v", added)
	}

	fee, err := b.Fee(alg)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := b.OutputTotal()
	if out+fee != 1000 {
		t.Errorf("outputs %d + fee %d should equal inputs 1000", out, fee)
	}
}

func TestBuilder_AddChange_NotEnough(t *testing.T) {
	_, dest := testAddress(t)
	alg := LinearFee{Constant: 10, Coefficient: 1000}
	b := NewBuilder().
		AddInput(types.Outpoint{}, 100).
		AddOutput(Output{Address: dest, Value: 100})
	if _, err := b.AddChange(alg, dest); !errors.Is(err, ErrNotEnoughInput) {
		t.Errorf("expected ErrNotEnoughInput, got %v", err)
	}
}

func TestBuilder_AddChange_DustAbsorbed(t *testing.T) {
	_, dest := testAddress(t)
	alg := LinearFee{Constant: 0, Coefficient: 1000}

	b := NewBuilder().AddInput(types.Outpoint{}, 0).AddOutput(Output{Address: dest, Value: 1})
	fee, _ := b.Fee(alg)
	// One coin above what is needed: far too little to pay for a change output.
	b = NewBuilder().AddInput(types.Outpoint{}, 1+fee+1).AddOutput(Output{Address: dest, Value: 1})

	added, err := b.AddChange(alg, dest)
	if err != nil {
		t.Fatalf("AddChange: %v", err)
	}
	if len(added) != 0 || len(b.Outputs()) != 1 {
		t.Errorf("dust should go to the fee, got change %v", added)
	}
}

func TestBuilder_Build(t *testing.T) {
	if _, err := NewBuilder().Build(); !errors.Is(err, ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
	if _, err := NewBuilder().AddInput(types.Outpoint{}, 1).Build(); !errors.Is(err, ErrNoOutputs) {
		t.Errorf("expected ErrNoOutputs, got %v", err)
	}
}

func TestFinalized_Witnesses(t *testing.T) {
	key, addr := testAddress(t)
	tx := &Transaction{
		Inputs:  []types.Outpoint{{TxID: types.Hash{3}}},
		Outputs: []Output{{Address: addr, Value: 10}},
	}
	f := NewFinalized(tx)
	if _, err := f.MakeTxAux(); !errors.Is(err, ErrMissingWitnesses) {
		t.Errorf("expected ErrMissingWitnesses, got %v", err)
	}

	w, _ := NewWitness(key, 7, tx.Hash())
	if err := f.AddWitness(w); err != nil {
		t.Fatalf("AddWitness: %v", err)
	}
	if err := f.AddWitness(w); !errors.Is(err, ErrTooManyWitnesses) {
		t.Errorf("expected ErrTooManyWitnesses, got %v", err)
	}

	aux, err := f.MakeTxAux()
	if err != nil {
		t.Fatalf("MakeTxAux: %v", err)
	}
	if err := aux.Verify(7, []types.Address{addr}); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := aux.Verify(8, []types.Address{addr}); !errors.Is(err, ErrInvalidWitness) {
		t.Errorf("expected ErrInvalidWitness, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	_, addr := testAddress(t)
	op := types.Outpoint{TxID: types.Hash{1}}

	dup := &Transaction{Inputs: []types.Outpoint{op, op}, Outputs: []Output{{addr, 1}}}
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("expected ErrDuplicateInput, got %v", err)
	}
	zero := &Transaction{Inputs: []types.Outpoint{op}, Outputs: []Output{{addr, 0}}}
	if err := zero.Validate(); !errors.Is(err, ErrZeroOutput) {
		t.Errorf("expected ErrZeroOutput, got %v", err)
	}
	ok := &Transaction{Inputs: []types.Outpoint{op}, Outputs: []Output{{addr, 1}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

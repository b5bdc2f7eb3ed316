package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Builder errors.
var (
	ErrNotEnoughInput   = errors.New("inputs do not cover outputs and fee")
	ErrTooManyWitnesses = errors.New("more witnesses than inputs")
	ErrMissingWitnesses = errors.New("fewer witnesses than inputs")
)

// Builder assembles a transaction from valued inputs and outputs.
type Builder struct {
	inputs  []types.Outpoint
	values  []types.Coin
	outputs []Output
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddInput adds an input together with the value it spends.
func (b *Builder) AddInput(prevOut types.Outpoint, value types.Coin) *Builder {
	b.inputs = append(b.inputs, prevOut)
	b.values = append(b.values, value)
	return b
}

// AddOutput adds an output.
func (b *Builder) AddOutput(out Output) *Builder {
	b.outputs = append(b.outputs, out)
	return b
}

// Inputs returns the outpoints added so far.
func (b *Builder) Inputs() []types.Outpoint {
	return b.inputs
}

// Outputs returns the outputs added so far, change included.
func (b *Builder) Outputs() []Output {
	return b.outputs
}

// InputTotal sums the input values.
func (b *Builder) InputTotal() (types.Coin, error) {
	return types.SumCoins(b.values...)
}

// OutputTotal sums the output values.
func (b *Builder) OutputTotal() (types.Coin, error) {
	values := make([]types.Coin, len(b.outputs))
	for i, out := range b.outputs {
		values[i] = out.Value
	}
	return types.SumCoins(values...)
}

// Fee computes the fee of the current transaction with fake witnesses.
func (b *Builder) Fee(alg FeeAlgorithm) (types.Coin, error) {
	return EstimateFee(alg, b.inputs, b.outputs)
}

// Balance returns inputs - outputs - fee. The boolean is false when the
// inputs do not cover outputs plus fee.
func (b *Builder) Balance(alg FeeAlgorithm) (types.Coin, bool, error) {
	in, err := b.InputTotal()
	if err != nil {
		return 0, false, err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return 0, false, err
	}
	fee, err := b.Fee(alg)
	if err != nil {
		return 0, false, err
	}
	need, err := out.Add(fee)
	if err != nil {
		return 0, false, err
	}
	if in < need {
		return need - in, false, nil
	}
	return in - need, true, nil
}

// AddChange sends whatever the inputs leave over, after fee, to change.
// It returns the change outputs added (none when nothing is left, or when
// the leftover is too small to pay for the extra output).
func (b *Builder) AddChange(alg FeeAlgorithm, change types.Address) ([]Output, error) {
	leftover, ok, err := b.Balance(alg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing %d", ErrNotEnoughInput, leftover)
	}
	if leftover == 0 {
		return nil, nil
	}

	b.outputs = append(b.outputs, Output{Address: change, Value: 0})
	withChange, ok, err := b.Balance(alg)
	if err != nil || !ok || withChange == 0 {
		b.outputs = b.outputs[:len(b.outputs)-1]
		return nil, err
	}
	b.outputs[len(b.outputs)-1].Value = withChange
	return []Output{b.outputs[len(b.outputs)-1]}, nil
}

// Build returns the transaction. It does not check balances.
func (b *Builder) Build() (*Transaction, error) {
	if len(b.inputs) == 0 {
		return nil, ErrNoInputs
	}
	if len(b.outputs) == 0 {
		return nil, ErrNoOutputs
	}
	tx := &Transaction{
		Inputs:  append([]types.Outpoint(nil), b.inputs...),
		Outputs: append([]Output(nil), b.outputs...),
	}
	return tx, nil
}

// Finalized is a built transaction collecting its witnesses.
type Finalized struct {
	tx        *Transaction
	witnesses []Witness
}

// NewFinalized wraps tx for signing.
func NewFinalized(tx *Transaction) *Finalized {
	return &Finalized{tx: tx}
}

// Transaction returns the wrapped transaction.
func (f *Finalized) Transaction() *Transaction {
	return f.tx
}

// AddWitness appends the witness of the next input.
func (f *Finalized) AddWitness(w Witness) error {
	if len(f.witnesses) >= len(f.tx.Inputs) {
		return ErrTooManyWitnesses
	}
	f.witnesses = append(f.witnesses, w)
	return nil
}

// MakeTxAux returns the transaction with its witnesses, once every input
// has one.
func (f *Finalized) MakeTxAux() (*TxAux, error) {
	if len(f.witnesses) != len(f.tx.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrMissingWitnesses, len(f.witnesses), len(f.tx.Inputs))
	}
	return &TxAux{Tx: f.tx, Witnesses: append([]Witness(nil), f.witnesses...)}, nil
}

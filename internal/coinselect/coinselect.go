// Package coinselect chooses which unspent outputs fund a transaction.
package coinselect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoExactMatch      = errors.New("no combination of inputs within the threshold")
	ErrNoOutputs         = errors.New("no outputs to fund")
)

// Input is a spendable output offered to the selection.
type Input struct {
	Outpoint types.Outpoint
	Value    types.Coin
}

// Result is a funded selection.
type Result struct {
	Selected []Input
	// Change holds the change output added to the transaction, if any.
	Change []tx.Output
	Fee    types.Coin
}

// Total sums the selected inputs.
func (r *Result) Total() (types.Coin, error) {
	return sumInputs(r.Selected)
}

// Algorithm selects inputs covering outputs plus fee. Change goes to
// changeAddress when the algorithm produces any.
type Algorithm interface {
	Compute(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output, changeAddress types.Address) (*Result, error)
}

// LargestFirst spends the biggest outputs first.
type LargestFirst struct{}

// Compute implements Algorithm.
func (LargestFirst) Compute(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output, changeAddress types.Address) (*Result, error) {
	sorted := append([]Input(nil), inputs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	return greedy(fee, sorted, outputs, changeAddress)
}

// FirstMatchFirst spends outputs in the order given.
type FirstMatchFirst struct{}

// Compute implements Algorithm.
func (FirstMatchFirst) Compute(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output, changeAddress types.Address) (*Result, error) {
	return greedy(fee, inputs, outputs, changeAddress)
}

// greedy adds inputs in order until they cover outputs and the fee, which
// is recomputed after every input since it grows with the size.
func greedy(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output, changeAddress types.Address) (*Result, error) {
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}
	b := tx.NewBuilder()
	for _, out := range outputs {
		b.AddOutput(out)
	}

	var selected []Input
	for _, in := range inputs {
		b.AddInput(in.Outpoint, in.Value)
		selected = append(selected, in)

		_, ok, err := b.Balance(fee)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		change, err := b.AddChange(fee, changeAddress)
		if err != nil {
			return nil, err
		}
		paid, err := b.Fee(fee)
		if err != nil {
			return nil, err
		}
		return &Result{Selected: selected, Change: change, Fee: paid}, nil
	}
	return nil, insufficient(fee, inputs, outputs)
}

func insufficient(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output) error {
	have, err := sumInputs(inputs)
	if err != nil {
		return err
	}
	need, err := required(fee, inputs, outputs)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, have, need)
}

// required returns outputs plus the fee of spending inputs to them.
func required(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output) (types.Coin, error) {
	outTotal, err := sumOutputs(outputs)
	if err != nil {
		return 0, err
	}
	f, err := tx.EstimateFee(fee, outpoints(inputs), outputs)
	if err != nil {
		return 0, err
	}
	return outTotal.Add(f)
}

func outpoints(inputs []Input) []types.Outpoint {
	ops := make([]types.Outpoint, len(inputs))
	for i, in := range inputs {
		ops[i] = in.Outpoint
	}
	return ops
}

func sumInputs(inputs []Input) (types.Coin, error) {
	values := make([]types.Coin, len(inputs))
	for i, in := range inputs {
		values[i] = in.Value
	}
	return types.SumCoins(values...)
}

func sumOutputs(outputs []tx.Output) (types.Coin, error) {
	values := make([]types.Coin, len(outputs))
	for i, out := range outputs {
		values[i] = out.Value
	}
	return types.SumCoins(values...)
}

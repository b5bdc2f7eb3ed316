package coinselect

import (
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// MaxBlackjackNodes bounds the subsets Blackjack visits.
const MaxBlackjackNodes = 100_000

// Blackjack looks for inputs whose total lands between outputs plus fee
// and that amount plus Threshold. The excess is left to the fee, so no
// change output is created.
type Blackjack struct {
	Threshold types.Coin
}

// Compute implements Algorithm. changeAddress is unused.
func (bj Blackjack) Compute(fee tx.FeeAlgorithm, inputs []Input, outputs []tx.Output, _ types.Address) (*Result, error) {
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}
	have, err := sumInputs(inputs)
	if err != nil {
		return nil, err
	}
	if need, err := required(fee, inputs, outputs); err != nil {
		return nil, err
	} else if have < need {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, have, need)
	}
	outTotal, err := sumOutputs(outputs)
	if err != nil {
		return nil, err
	}

	sorted := append([]Input(nil), inputs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	// rest[i] is the value of sorted[i:].
	rest := make([]types.Coin, len(sorted)+1)
	for i := len(sorted) - 1; i >= 0; i-- {
		rest[i] = rest[i+1] + sorted[i].Value
	}

	s := &search{
		fee:       fee,
		outputs:   outputs,
		outTotal:  outTotal,
		threshold: bj.Threshold,
		inputs:    sorted,
		rest:      rest,
	}
	found, err := s.visit(0, nil, 0)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: threshold %d after %d candidates", ErrNoExactMatch, bj.Threshold, s.nodes)
	}
	total, err := sumInputs(found)
	if err != nil {
		return nil, err
	}
	return &Result{Selected: found, Fee: total - outTotal}, nil
}

type search struct {
	fee       tx.FeeAlgorithm
	outputs   []tx.Output
	outTotal  types.Coin
	threshold types.Coin
	inputs    []Input
	rest      []types.Coin
	nodes     int
}

// visit explores the subsets extending chosen with inputs from index i on.
// Adding an input worth more than its own fee only moves the total further
// above the window, so overshooting branches are cut.
func (s *search) visit(i int, chosen []Input, total types.Coin) ([]Input, error) {
	s.nodes++
	if s.nodes > MaxBlackjackNodes {
		return nil, nil
	}
	if len(chosen) > 0 {
		f, err := tx.EstimateFee(s.fee, outpoints(chosen), s.outputs)
		if err != nil {
			return nil, err
		}
		low, err := s.outTotal.Add(f)
		if err != nil {
			return nil, err
		}
		high, err := low.Add(s.threshold)
		if err != nil {
			high = types.MaxCoin
		}
		switch {
		case total >= low && total <= high:
			return append([]Input(nil), chosen...), nil
		case total > high:
			return nil, nil
		case total+s.rest[i] < low:
			return nil, nil
		}
	}
	for j := i; j < len(s.inputs); j++ {
		next, err := total.Add(s.inputs[j].Value)
		if err != nil {
			return nil, err
		}
		found, err := s.visit(j+1, append(chosen, s.inputs[j]), next)
		if err != nil || found != nil {
			return found, err
		}
		if s.nodes > MaxBlackjackNodes {
			return nil, nil
		}
	}
	return nil, nil
}

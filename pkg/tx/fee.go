package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// FeeAlgorithm computes the minimum fee of a fully witnessed transaction.
type FeeAlgorithm interface {
	CalculateFor(aux *TxAux) (types.Coin, error)
}

// LinearFee charges Constant + Coefficient/1000 per serialized byte,
// rounded up.
type LinearFee struct {
	Constant    types.Coin `json:"constant" yaml:"constant" mapstructure:"constant"`
	Coefficient uint64     `json:"coefficient" yaml:"coefficient" mapstructure:"coefficient"`
}

// Default fee parameters: 155381 + 43.946 per byte.
const (
	DefaultFeeConstant    types.Coin = 155_381
	DefaultFeeCoefficient uint64     = 43_946
)

// DefaultLinearFee returns the network default fee parameters.
func DefaultLinearFee() LinearFee {
	return LinearFee{Constant: DefaultFeeConstant, Coefficient: DefaultFeeCoefficient}
}

// Estimate returns the fee for a transaction of the given serialized size.
func (f LinearFee) Estimate(size int) (types.Coin, error) {
	if size < 0 {
		return 0, fmt.Errorf("negative transaction size %d", size)
	}
	n := uint64(size)
	if f.Coefficient != 0 && n > (^uint64(0)-999)/f.Coefficient {
		return 0, fmt.Errorf("%w: fee for %d bytes", types.ErrCoinOverflow, size)
	}
	perByte, err := types.NewCoin((n*f.Coefficient + 999) / 1000)
	if err != nil {
		return 0, err
	}
	return f.Constant.Add(perByte)
}

// CalculateFor implements FeeAlgorithm.
func (f LinearFee) CalculateFor(aux *TxAux) (types.Coin, error) {
	return f.Estimate(aux.Size())
}

// EstimateFee computes the fee of a transaction spending inputs to outputs,
// using fake witnesses in place of the signatures.
func EstimateFee(alg FeeAlgorithm, inputs []types.Outpoint, outputs []Output) (types.Coin, error) {
	aux := &TxAux{
		Tx:        &Transaction{Inputs: inputs, Outputs: outputs},
		Witnesses: make([]Witness, len(inputs)),
	}
	for i := range aux.Witnesses {
		aux.Witnesses[i] = FakeWitness()
	}
	return alg.CalculateFor(aux)
}

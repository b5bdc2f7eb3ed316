package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Validation errors.
var (
	ErrNoInputs       = errors.New("transaction has no inputs")
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrZeroOutput     = errors.New("output value is zero")
	ErrInvalidWitness = errors.New("invalid witness")
)

// Validate checks transaction structure.
// It does not check that the inputs exist.
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[types.Outpoint]struct{}, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if _, dup := seen[in]; dup {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in] = struct{}{}
	}

	for i, out := range tx.Outputs {
		if out.Value == 0 {
			return fmt.Errorf("output %d: %w", i, ErrZeroOutput)
		}
	}
	if _, err := tx.TotalOutputValue(); err != nil {
		return err
	}
	return nil
}

// Verify checks structure and that witness i signs the transaction with a
// key owning spent[i], the address of input i.
func (a *TxAux) Verify(protocolMagic uint32, spent []types.Address) error {
	if err := a.Tx.Validate(); err != nil {
		return err
	}
	if len(a.Witnesses) != len(a.Tx.Inputs) {
		return fmt.Errorf("%w: %d witnesses for %d inputs", ErrMissingWitnesses, len(a.Witnesses), len(a.Tx.Inputs))
	}
	if len(spent) != len(a.Tx.Inputs) {
		return fmt.Errorf("%d spent addresses for %d inputs", len(spent), len(a.Tx.Inputs))
	}
	txid := a.ID()
	for i, w := range a.Witnesses {
		if !w.Verify(protocolMagic, txid, spent[i]) {
			return fmt.Errorf("input %d (%s): %w", i, a.Tx.Inputs[i], ErrInvalidWitness)
		}
	}
	return nil
}

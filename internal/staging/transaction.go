package staging

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Transaction is the state reached by replaying a staging transaction's
// operations. It is read only; edits go through Staging.
type Transaction struct {
	Inputs    []Input      `yaml:"inputs"`
	Outputs   []tx.Output  `yaml:"outputs"`
	Changes   []Change     `yaml:"changes"`
	Witnesses []tx.Witness `yaml:"witnesses"`
	Finalized bool         `yaml:"finalized"`
}

// LookupInput returns the position of the input spending op, or -1.
func (t *Transaction) LookupInput(op types.Outpoint) int {
	for i, in := range t.Inputs {
		if in.Outpoint() == op {
			return i
		}
	}
	return -1
}

// HasChange reports whether a change address is set.
func (t *Transaction) HasChange() bool {
	return len(t.Changes) > 0
}

// InputTotal sums the expected input values.
func (t *Transaction) InputTotal() (types.Coin, error) {
	values := make([]types.Coin, len(t.Inputs))
	for i, in := range t.Inputs {
		values[i] = in.Value
	}
	return types.SumCoins(values...)
}

// Check tells whether op can be applied, without applying it.
func (t *Transaction) Check(op Operation) error {
	switch op.Kind {
	case OpAddInput:
		if t.Finalized {
			return fmt.Errorf("%w: cannot add inputs", ErrAlreadyFinalized)
		}
		if t.LookupInput(op.Input.Outpoint()) >= 0 {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, op.Input.Outpoint())
		}
	case OpAddOutput:
		if t.Finalized {
			return fmt.Errorf("%w: cannot add outputs", ErrAlreadyFinalized)
		}
	case OpAddChange:
		if t.Finalized {
			return fmt.Errorf("%w: cannot add change", ErrAlreadyFinalized)
		}
		if t.HasChange() {
			return ErrMoreThanOneChange
		}
	case OpRemoveInput:
		if t.LookupInput(op.Outpoint) < 0 {
			return fmt.Errorf("%w: %s", ErrInputNotFound, op.Outpoint)
		}
	case OpRemoveOutput:
		if int(op.Index) >= len(t.Outputs) {
			return fmt.Errorf("%w: index %d of %d", ErrOutputNotFound, op.Index, len(t.Outputs))
		}
	case OpRemoveChange:
		if t.changeIndex(op.Change.Address) < 0 {
			return fmt.Errorf("%w: %s", ErrChangeNotFound, op.Change.Address)
		}
	case OpSignature:
		if !t.Finalized {
			return ErrNotFinalized
		}
		if len(t.Witnesses) >= len(t.Inputs) {
			return ErrTooManyWitnesses
		}
	case OpFinalize:
		if t.Finalized {
			return ErrAlreadyFinalized
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOperation, op.Kind)
	}
	return nil
}

// Apply checks op and updates t.
func (t *Transaction) Apply(op Operation) error {
	if err := t.Check(op); err != nil {
		return err
	}
	switch op.Kind {
	case OpAddInput:
		t.Inputs = append(t.Inputs, op.Input)
	case OpAddOutput:
		t.Outputs = append(t.Outputs, op.Output)
	case OpAddChange:
		t.Changes = append(t.Changes, op.Change)
	case OpRemoveInput:
		i := t.LookupInput(op.Outpoint)
		t.Inputs = append(t.Inputs[:i], t.Inputs[i+1:]...)
	case OpRemoveOutput:
		t.Outputs = append(t.Outputs[:op.Index], t.Outputs[op.Index+1:]...)
	case OpRemoveChange:
		i := t.changeIndex(op.Change.Address)
		t.Changes = append(t.Changes[:i], t.Changes[i+1:]...)
	case OpSignature:
		t.Witnesses = append(t.Witnesses, op.Witness)
	case OpFinalize:
		t.Finalized = true
	}
	return nil
}

func (t *Transaction) changeIndex(addr types.Address) int {
	for i, c := range t.Changes {
		if c.Address == addr {
			return i
		}
	}
	return -1
}

// MkTxBuilder assembles the inputs and outputs. With a change address the
// leftover after fee is sent to it; the added change outputs are returned.
func (t *Transaction) MkTxBuilder(fee tx.FeeAlgorithm) (*tx.Builder, []tx.Output, error) {
	b := t.builder()
	if len(t.Changes) != 1 {
		return b, nil, nil
	}
	change, err := b.AddChange(fee, t.Changes[0].Address)
	if err != nil {
		return nil, nil, fmt.Errorf("apply change policy: %w", err)
	}
	return b, change, nil
}

func (t *Transaction) builder() *tx.Builder {
	b := tx.NewBuilder()
	for _, in := range t.Inputs {
		b.AddInput(in.Outpoint(), in.Value)
	}
	for _, out := range t.Outputs {
		b.AddOutput(out)
	}
	return b
}

// MkFinalized builds the transaction and attaches the witnesses collected
// so far. The transaction must be finalized.
func (t *Transaction) MkFinalized(fee tx.FeeAlgorithm) (*tx.Finalized, []tx.Output, error) {
	if !t.Finalized {
		return nil, nil, ErrNotFinalized
	}
	b, change, err := t.MkTxBuilder(fee)
	if err != nil {
		return nil, nil, err
	}
	built, err := b.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build transaction: %w", err)
	}
	f := tx.NewFinalized(built)
	for _, w := range t.Witnesses {
		if err := f.AddWitness(w); err != nil {
			return nil, nil, err
		}
	}
	return f, change, nil
}

// ToTxAux returns the signed transaction, once every input has a witness.
func (t *Transaction) ToTxAux(fee tx.FeeAlgorithm) (*tx.TxAux, error) {
	f, _, err := t.MkFinalized(fee)
	if err != nil {
		return nil, err
	}
	aux, err := f.MakeTxAux()
	if errors.Is(err, tx.ErrMissingWitnesses) {
		return nil, fmt.Errorf("transaction is not fully signed: %w", err)
	}
	return aux, err
}

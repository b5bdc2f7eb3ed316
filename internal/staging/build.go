package staging

import (
	"errors"
	"fmt"

	"github.com/ccoveille/go-safecast"

	"github.com/Klingon-tech/klingnet-cli/internal/coinselect"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// ErrNoKey is returned by Sign when no known wallet owns an input.
var ErrNoKey = errors.New("no wallet owns the input")

// Status summarises a staging transaction's balance.
type Status struct {
	InputTotal  types.Coin
	OutputTotal types.Coin
	// Difference is InputTotal - OutputTotal: the fee the transaction
	// pays as it stands. Negative when underfunded.
	Difference  int64
	ExpectedFee types.Coin
	Size        int
	Inputs      []types.Outpoint
	Outputs     []tx.Output
}

// Status computes the balance of the transaction, with the change output
// when the inputs can afford one. Fee and size assume one witness per
// input.
func (s *Staging) Status(fee tx.FeeAlgorithm) (*Status, error) {
	b, _, err := s.tx.MkTxBuilder(fee)
	if errors.Is(err, tx.ErrNotEnoughInput) {
		b = s.tx.builder()
	} else if err != nil {
		return nil, err
	}

	in, err := b.InputTotal()
	if err != nil {
		return nil, err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return nil, err
	}
	i64, err := safecast.ToInt64(uint64(in))
	if err != nil {
		return nil, err
	}
	o64, err := safecast.ToInt64(uint64(out))
	if err != nil {
		return nil, err
	}
	expected, err := b.Fee(fee)
	if err != nil {
		return nil, err
	}

	aux := &tx.TxAux{
		Tx:        &tx.Transaction{Inputs: b.Inputs(), Outputs: b.Outputs()},
		Witnesses: make([]tx.Witness, len(b.Inputs())),
	}
	for i := range aux.Witnesses {
		aux.Witnesses[i] = tx.FakeWitness()
	}

	return &Status{
		InputTotal:  in,
		OutputTotal: out,
		Difference:  i64 - o64,
		ExpectedFee: expected,
		Size:        aux.Size(),
		Inputs:      b.Inputs(),
		Outputs:     b.Outputs(),
	}, nil
}

// InputSelect runs alg over the candidate utxos and adds the chosen ones
// as inputs. Candidates already spent by the transaction are skipped. A
// change address must be set.
func (s *Staging) InputSelect(alg coinselect.Algorithm, fee tx.FeeAlgorithm, utxos []coinselect.Input) (*coinselect.Result, error) {
	if !s.tx.HasChange() {
		return nil, ErrNoChangeAddress
	}
	if s.tx.Finalized {
		return nil, fmt.Errorf("%w: cannot add inputs", ErrAlreadyFinalized)
	}
	candidates := make([]coinselect.Input, 0, len(utxos))
	for _, u := range utxos {
		if s.tx.LookupInput(u.Outpoint) < 0 {
			candidates = append(candidates, u)
		}
	}
	if len(s.tx.Inputs) > 0 {
		log.Staging.Warn().Int("inputs", len(s.tx.Inputs)).Msg("Selecting on top of existing inputs; their value goes to change")
	}

	res, err := alg.Compute(fee, candidates, s.tx.Outputs, s.tx.Changes[0].Address)
	if err != nil {
		return nil, err
	}
	for _, in := range res.Selected {
		if err := s.AddInput(Input{TxID: in.Outpoint.TxID, Index: in.Outpoint.Index, Value: in.Value}); err != nil {
			return nil, err
		}
	}
	log.Staging.Info().
		Str("id", s.id.String()).
		Int("selected", len(res.Selected)).
		Stringer("fee", res.Fee).
		Msg("Inputs selected")
	return res, nil
}

// KeyFinder returns the key controlling the output op. ok is false when
// no wallet owns it.
type KeyFinder func(op types.Outpoint) (signer crypto.Signer, ok bool, err error)

// Sign witnesses every input that has no witness yet, in input order.
// Nothing is written unless every remaining input can be signed.
func (s *Staging) Sign(fee tx.FeeAlgorithm, find KeyFinder) (int, error) {
	f, _, err := s.tx.MkFinalized(fee)
	if err != nil {
		return 0, err
	}
	txid := f.Transaction().Hash()

	var witnesses []tx.Witness
	for _, in := range s.tx.Inputs[len(s.tx.Witnesses):] {
		signer, ok, err := find(in.Outpoint())
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNoKey, in.Outpoint())
		}
		w, err := tx.NewWitness(signer, s.magic, txid)
		if err != nil {
			return 0, err
		}
		witnesses = append(witnesses, w)
	}
	for _, w := range witnesses {
		if err := s.AddSignature(w); err != nil {
			return 0, err
		}
	}
	return len(witnesses), nil
}

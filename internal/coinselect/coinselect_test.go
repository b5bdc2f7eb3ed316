package coinselect

import (
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// flatFee charges 10 whatever the size.
var flatFee = tx.LinearFee{Constant: 10}

func makeInputs(values ...types.Coin) []Input {
	inputs := make([]Input, len(values))
	for i, v := range values {
		inputs[i] = Input{
			Outpoint: types.Outpoint{TxID: types.Hash{byte(i + 1)}, Index: 0},
			Value:    v,
		}
	}
	return inputs
}

func addr(b byte) types.Address {
	var h [types.AddressHashSize]byte
	h[0] = b
	return types.NewAddress(h, nil)
}

func pay(value types.Coin) []tx.Output {
	return []tx.Output{{Address: addr(1), Value: value}}
}

var changeAddr = addr(2)

func values(inputs []Input) []types.Coin {
	out := make([]types.Coin, len(inputs))
	for i, in := range inputs {
		out[i] = in.Value
	}
	return out
}

func equalValues(a, b []types.Coin) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLargestFirst(t *testing.T) {
	res, err := LargestFirst{}.Compute(flatFee, makeInputs(100, 300, 200), pay(250), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := values(res.Selected); !equalValues(got, []types.Coin{300}) {
		t.Errorf("selected = %v, want [300]", got)
	}
	if res.Fee != 10 {
		t.Errorf("fee = %d, want 10", res.Fee)
	}
	if len(res.Change) != 1 || res.Change[0].Value != 40 || res.Change[0].Address != changeAddr {
		t.Errorf("change = %+v, want 40 to change address", res.Change)
	}
}

func TestLargestFirstPrefersSingleInput(t *testing.T) {
	res, err := LargestFirst{}.Compute(tx.LinearFee{}, makeInputs(10, 40, 25), pay(30), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := values(res.Selected); !equalValues(got, []types.Coin{40}) {
		t.Errorf("selected = %v, want [40]", got)
	}
	if len(res.Change) != 1 || res.Change[0].Value != 10 {
		t.Errorf("change = %+v, want 10", res.Change)
	}
}

func TestFirstMatchFirst(t *testing.T) {
	res, err := FirstMatchFirst{}.Compute(flatFee, makeInputs(100, 300, 200), pay(250), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := values(res.Selected); !equalValues(got, []types.Coin{100, 300}) {
		t.Errorf("selected = %v, want [100 300]", got)
	}
	if len(res.Change) != 1 || res.Change[0].Value != 140 {
		t.Errorf("change = %+v, want 140", res.Change)
	}
}

func TestExactAmountHasNoChange(t *testing.T) {
	res, err := LargestFirst{}.Compute(flatFee, makeInputs(260), pay(250), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Change) != 0 {
		t.Errorf("change = %+v, want none", res.Change)
	}
}

func TestGreedyInsufficientFunds(t *testing.T) {
	for name, alg := range map[string]Algorithm{
		"largest-first":     LargestFirst{},
		"first-match-first": FirstMatchFirst{},
	} {
		_, err := alg.Compute(flatFee, makeInputs(100, 100), pay(250), changeAddr)
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("%s: err = %v, want ErrInsufficientFunds", name, err)
		}
		if !strings.Contains(err.Error(), "have 200, need 260") {
			t.Errorf("%s: error %q does not report amounts", name, err)
		}
	}
}

func TestNoOutputs(t *testing.T) {
	for _, alg := range []Algorithm{LargestFirst{}, FirstMatchFirst{}, Blackjack{Threshold: 5}} {
		if _, err := alg.Compute(flatFee, makeInputs(100), nil, changeAddr); !errors.Is(err, ErrNoOutputs) {
			t.Fatalf("%T: err = %v, want ErrNoOutputs", alg, err)
		}
	}
}

func TestFeeGrowsWithInputs(t *testing.T) {
	perByte := tx.LinearFee{Coefficient: 1000}
	inputs := makeInputs(400, 400, 400, 400)
	res, err := LargestFirst{}.Compute(perByte, inputs, pay(1000), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	outputs := append(pay(1000), res.Change...)
	want, err := tx.EstimateFee(perByte, outpoints(res.Selected), outputs)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fee != want {
		t.Errorf("fee = %d, want %d", res.Fee, want)
	}

	total, err := res.Total()
	if err != nil {
		t.Fatal(err)
	}
	spent, _ := sumOutputs(outputs)
	if total != spent+res.Fee {
		t.Errorf("inputs %d != outputs %d + fee %d", total, spent, res.Fee)
	}
}

func TestBlackjack(t *testing.T) {
	res, err := Blackjack{Threshold: 5}.Compute(flatFee, makeInputs(300, 200, 100, 60, 55), pay(250), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := values(res.Selected); !equalValues(got, []types.Coin{200, 60}) {
		t.Errorf("selected = %v, want [200 60]", got)
	}
	if len(res.Change) != 0 {
		t.Errorf("change = %+v, want none", res.Change)
	}
	if res.Fee != 10 {
		t.Errorf("fee = %d, want 10", res.Fee)
	}
}

func TestBlackjackKeepsExcessAsFee(t *testing.T) {
	res, err := Blackjack{Threshold: 50}.Compute(flatFee, makeInputs(300), pay(250), changeAddr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if res.Fee != 50 {
		t.Errorf("fee = %d, want 50", res.Fee)
	}
}

func TestBlackjackNoExactMatch(t *testing.T) {
	_, err := Blackjack{Threshold: 5}.Compute(flatFee, makeInputs(300, 200, 100, 55), pay(250), changeAddr)
	if !errors.Is(err, ErrNoExactMatch) {
		t.Fatalf("err = %v, want ErrNoExactMatch", err)
	}
}

func TestBlackjackInsufficientFunds(t *testing.T) {
	_, err := Blackjack{Threshold: 5}.Compute(flatFee, makeInputs(100), pay(250), changeAddr)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestBlackjackBoundedSearch(t *testing.T) {
	// 40 equal inputs whose every subset misses the window: the search
	// must give up instead of visiting 2^40 subsets.
	values := make([]types.Coin, 40)
	for i := range values {
		values[i] = 7
	}
	_, err := Blackjack{Threshold: 0}.Compute(flatFee, makeInputs(values...), pay(101), changeAddr)
	if !errors.Is(err, ErrNoExactMatch) {
		t.Fatalf("err = %v, want ErrNoExactMatch", err)
	}
}

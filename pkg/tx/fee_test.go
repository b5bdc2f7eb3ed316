package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

func TestLinearFee_Estimate(t *testing.T) {
	f := LinearFee{Constant: 100, Coefficient: 1500}
	tests := []struct {
		size int
		want types.Coin
	}{
		{0, 100},
		{1, 102}, // 1.5 rounds up
		{2, 103},
		{1000, 1600},
	}
	for _, tt := range tests {
		got, err := f.Estimate(tt.size)
		if err != nil {
			t.Fatalf("Estimate(%d): %v", tt.size, err)
		}
		if got != tt.want {
			t.Errorf("Estimate(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}

	if _, err := f.Estimate(-1); err == nil {
		t.Error("negative size should fail")
	}
	huge := LinearFee{Coefficient: ^uint64(0)}
	if _, err := huge.Estimate(1 << 20); !errors.Is(err, types.ErrCoinOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestEstimateFee_GrowsWithInputs(t *testing.T) {
	_, addr := testAddress(t)
	outs := []Output{{Address: addr, Value: 1}}
	alg := DefaultLinearFee()

	one, err := EstimateFee(alg, []types.Outpoint{{Index: 0}}, outs)
	if err != nil {
		t.Fatal(err)
	}
	two, err := EstimateFee(alg, []types.Outpoint{{Index: 0}, {Index: 1}}, outs)
	if err != nil {
		t.Fatal(err)
	}
	if two <= one {
		t.Errorf("fee with two inputs (%d) should exceed one input (%d)", two, one)
	}
}

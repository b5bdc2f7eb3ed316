package types

import (
	"errors"
	"testing"
)

func TestCoin_Add(t *testing.T) {
	sum, err := Coin(100).Add(50)
	if err != nil || sum != 150 {
		t.Fatalf("Add = %d, %v", sum, err)
	}
	if _, err := MaxCoin.Add(1); !errors.Is(err, ErrCoinOverflow) {
		t.Errorf("expected ErrCoinOverflow, got %v", err)
	}
	if _, err := Coin(^uint64(0)).Add(2); !errors.Is(err, ErrCoinOverflow) {
		t.Errorf("wrapping add should overflow, got %v", err)
	}
}

func TestCoin_Sub(t *testing.T) {
	d, err := Coin(100).Sub(40)
	if err != nil || d != 60 {
		t.Fatalf("Sub = %d, %v", d, err)
	}
	if _, err := Coin(1).Sub(2); !errors.Is(err, ErrCoinNegative) {
		t.Errorf("expected ErrCoinNegative, got %v", err)
	}
}

func TestSumCoins(t *testing.T) {
	total, err := SumCoins(10, 40, 25)
	if err != nil || total != 75 {
		t.Fatalf("SumCoins = %d, %v", total, err)
	}
	if _, err := SumCoins(MaxCoin, 1); err == nil {
		t.Error("expected overflow")
	}
}

func TestParseCoin(t *testing.T) {
	c, err := ParseCoin("1000")
	if err != nil || c != 1000 {
		t.Fatalf("ParseCoin = %d, %v", c, err)
	}
	if _, err := ParseCoin("-1"); err == nil {
		t.Error("negative amount should fail")
	}
	if _, err := ParseCoin("45000000000000001"); !errors.Is(err, ErrCoinOverflow) {
		t.Errorf("expected ErrCoinOverflow, got %v", err)
	}
}

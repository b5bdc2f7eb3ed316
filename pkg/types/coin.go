package types

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxCoin is the largest amount that can exist on the chain.
const MaxCoin Coin = 45_000_000_000_000_000

// ErrCoinOverflow is returned when an amount leaves the valid coin range.
var ErrCoinOverflow = errors.New("coin value out of range")

// ErrCoinNegative is returned when a subtraction would go below zero.
var ErrCoinNegative = errors.New("coin value negative")

// Coin is an amount in base units. Valid values are in [0, MaxCoin].
type Coin uint64

// NewCoin checks that v is a valid amount.
func NewCoin(v uint64) (Coin, error) {
	if Coin(v) > MaxCoin {
		return 0, fmt.Errorf("%w: %d", ErrCoinOverflow, v)
	}
	return Coin(v), nil
}

// Add returns c + o, failing if the sum exceeds MaxCoin.
func (c Coin) Add(o Coin) (Coin, error) {
	sum := c + o
	if sum < c || sum > MaxCoin {
		return 0, fmt.Errorf("%w: %d + %d", ErrCoinOverflow, c, o)
	}
	return sum, nil
}

// Sub returns c - o, failing if o > c.
func (c Coin) Sub(o Coin) (Coin, error) {
	if o > c {
		return 0, fmt.Errorf("%w: %d - %d", ErrCoinNegative, c, o)
	}
	return c - o, nil
}

// SumCoins adds all values with overflow checking.
func SumCoins(values ...Coin) (Coin, error) {
	var total Coin
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// String formats the amount in base units.
func (c Coin) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// ParseCoin parses a decimal amount in base units.
func ParseCoin(s string) (Coin, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewCoin(v)
}

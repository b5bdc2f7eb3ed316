package wallet

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// ErrInvalidMnemonic is returned for phrases failing the BIP-39 checks.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// SeedFromMnemonic derives the root seed from a mnemonic and the recovery
// password. A wrong recovery password yields a different, valid wallet.
func SeedFromMnemonic(mnemonic, recoveryPassword string) ([]byte, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, recoveryPassword)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

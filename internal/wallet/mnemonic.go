// Package wallet holds HD wallets: BIP-39 mnemonics and seeds, BIP-32
// keys, the password-encrypted seed and the wallet directory with its
// attached blockchain and event log.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the default entropy size (24 words).
const MnemonicEntropyBits = 256

// EntropyBitsForWords maps a mnemonic length to its entropy size.
func EntropyBitsForWords(words int) (int, error) {
	switch words {
	case 12, 15, 18, 21, 24:
		return words * 32 / 3, nil
	}
	return 0, fmt.Errorf("unsupported mnemonic length %d (want 12, 15, 18, 21 or 24)", words)
}

// GenerateMnemonic creates a new BIP-39 mnemonic of the given word count.
func GenerateMnemonic(words int) (string, error) {
	bits, err := EntropyBitsForWords(words)
	if err != nil {
		return "", err
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic collapses whitespace and lowercases the words.
func NormalizeMnemonic(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

package types

import (
	"encoding/hex"
	"fmt"
)

// HexBytes is a byte slice that encodes as hex in JSON and YAML.
type HexBytes []byte

// MarshalText encodes the bytes as lowercase hex.
func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

// UnmarshalText decodes hex text.
func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*b = decoded
	return nil
}

// String returns the hex encoding.
func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

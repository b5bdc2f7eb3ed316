package types

import (
	"errors"
	"fmt"
	"strings"
)

// BIP-173 alphabet. Addresses longer than 90 characters are accepted: random
// index payloads push encoded addresses past the BIP-173 limit.
const bech32Alphabet = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32Generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

var errBech32Padding = errors.New("bech32: non-zero padding")

// Bech32Encode encodes data under the given human-readable part.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if err := checkHRP(hrp); err != nil {
		return "", err
	}
	groups, err := regroup(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := bech32Checksum(hrp, groups)

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups) + len(checksum))
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, g := range append(groups, checksum...) {
		sb.WriteByte(bech32Alphabet[g])
	}
	return sb.String(), nil
}

// Bech32Decode splits a bech32 string into its human-readable part and data.
func Bech32Decode(s string) (string, []byte, error) {
	if s != strings.ToLower(s) && s != strings.ToUpper(s) {
		return "", nil, fmt.Errorf("bech32: mixed case")
	}
	s = strings.ToLower(s)

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 {
		return "", nil, fmt.Errorf("bech32: missing separator")
	}
	if len(s)-sep-1 < 6 {
		return "", nil, fmt.Errorf("bech32: too short")
	}
	hrp := s[:sep]
	if err := checkHRP(hrp); err != nil {
		return "", nil, err
	}

	groups := make([]byte, 0, len(s)-sep-1)
	for _, c := range s[sep+1:] {
		v := strings.IndexRune(bech32Alphabet, c)
		if v < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q", c)
		}
		groups = append(groups, byte(v))
	}
	if polymod(append(expandHRP(hrp), groups...)) != 1 {
		return "", nil, fmt.Errorf("bech32: invalid checksum")
	}

	data, err := regroup(groups[:len(groups)-6], 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, data, nil
}

func checkHRP(hrp string) error {
	if hrp == "" {
		return fmt.Errorf("bech32: empty HRP")
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return fmt.Errorf("bech32: invalid HRP character %q", c)
		}
	}
	return nil
}

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range bech32Generator {
			if (top>>uint(i))&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

func expandHRP(hrp string) []byte {
	out := make([]byte, 0, 2*len(hrp)+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32Checksum(hrp string, groups []byte) []byte {
	values := append(expandHRP(hrp), groups...)
	values = append(values, make([]byte, 6)...)
	mod := polymod(values) ^ 1
	out := make([]byte, 6)
	for i := range out {
		out[i] = byte(mod>>uint(5*(5-i))) & 31
	}
	return out
}

// regroup converts a byte stream between bit group sizes.
func regroup(data []byte, from, to uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)

	for _, b := range data {
		if uint32(b)>>from != 0 {
			return nil, fmt.Errorf("bech32: invalid data byte %d", b)
		}
		acc = acc<<from | uint32(b)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}

	switch {
	case pad && bits > 0:
		out = append(out, byte(acc<<(to-bits)&maxv))
	case !pad && (bits >= from || acc<<(to-bits)&maxv != 0):
		return nil, errBech32Padding
	}
	return out, nil
}

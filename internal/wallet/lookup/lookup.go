// Package lookup recognises the wallet's own addresses among transaction
// outputs. Sequential implements BIP-44 scanning with a gap limit, Random
// decrypts derivation paths carried in address payloads, and Accum accepts
// everything for read-only replays of a wallet log.
package lookup

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

var (
	// ErrUnsupportedAddressing is returned when an addressing of another
	// scheme is handed to a lookup.
	ErrUnsupportedAddressing = errors.New("unsupported addressing for this wallet scheme")

	// ErrCannotReconstructAddress means an address decrypted to one of our
	// derivation paths but the key at that path does not produce it. The
	// payload was forged or the wallet is not the one that made it.
	ErrCannotReconstructAddress = errors.New("cannot reconstruct address from its derivation path")
)

// AddressLookup recognises owned outputs.
type AddressLookup interface {
	// Lookup returns the UTXO with its addressing when the credited
	// address belongs to the wallet, nil otherwise.
	Lookup(utxo UTXO[types.Address]) (*UTXO[Addressing], error)

	// Acknowledge tells the lookup an addressing is in use, so it can
	// widen its search window.
	Acknowledge(a Addressing) error
}

// Keyring derives the keys and addresses behind addressings.
type Keyring interface {
	Key(a Addressing) (*wallet.HDKey, error)
	Address(a Addressing) (types.Address, error)
}

// Scheme tags an Addressing.
type Scheme string

const (
	SchemeBIP44       Scheme = "bip44"
	SchemeRandomIndex Scheme = "rindex"
	SchemeRaw         Scheme = "raw"
)

// Addressing locates an address in the wallet's key tree. Change is only
// meaningful for bip44, Raw only for raw.
type Addressing struct {
	Scheme  Scheme        `yaml:"scheme" json:"scheme"`
	Account uint32        `yaml:"account,omitempty" json:"account,omitempty"`
	Change  uint32        `yaml:"change,omitempty" json:"change,omitempty"`
	Index   uint32        `yaml:"index,omitempty" json:"index,omitempty"`
	Raw     types.Address `yaml:"raw,omitempty" json:"raw,omitempty"`
}

// BIP44 returns the addressing m/44'/8888'/account'/change/index.
func BIP44(account, change, index uint32) Addressing {
	return Addressing{Scheme: SchemeBIP44, Account: account, Change: change, Index: index}
}

// RandomIndex returns the addressing m/account'/index'.
func RandomIndex(account, index uint32) Addressing {
	return Addressing{Scheme: SchemeRandomIndex, Account: account, Index: index}
}

// Raw returns the addressing of an address known only by value.
func Raw(addr types.Address) Addressing {
	return Addressing{Scheme: SchemeRaw, Raw: addr}
}

func (a Addressing) String() string {
	switch a.Scheme {
	case SchemeBIP44:
		return fmt.Sprintf("bip44/%d'/%d/%d", a.Account, a.Change, a.Index)
	case SchemeRandomIndex:
		return fmt.Sprintf("rindex/%d'/%d'", a.Account, a.Index)
	case SchemeRaw:
		return "raw/" + a.Raw.String()
	}
	return fmt.Sprintf("unknown(%s)", a.Scheme)
}

// ForWallet returns the lookup matching the wallet's scheme, built on its
// root key. Sequential lookups come with their first account prepared.
func ForWallet(scheme wallet.Scheme, root *wallet.HDKey, gap uint32) (AddressLookup, error) {
	switch scheme {
	case wallet.SchemeBIP44:
		s := NewSequential(root, gap)
		if err := s.PrepareNextAccount(); err != nil {
			return nil, err
		}
		return s, nil
	case wallet.SchemeRandomIndex:
		return NewRandom(root)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddressing, scheme)
}

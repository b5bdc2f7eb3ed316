package lookup

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// DefaultGapLimit is the BIP-44 gap limit.
const DefaultGapLimit = 20

// Sequential recognises BIP-44 addresses. For every prepared account it
// derives the first gap addresses of the external and internal chains,
// and keeps gap addresses ahead of the highest index seen on each.
type Sequential struct {
	root     *wallet.HDKey
	gap      uint32
	expected map[types.Address]Addressing
	// derived[account][change] is the number of indices derived so far.
	derived [][2]uint32
}

// NewSequential builds a lookup over root. A zero gap means DefaultGapLimit.
func NewSequential(root *wallet.HDKey, gap uint32) *Sequential {
	if gap == 0 {
		gap = DefaultGapLimit
	}
	return &Sequential{
		root:     root,
		gap:      gap,
		expected: make(map[types.Address]Addressing),
	}
}

// GapLimit returns the number of addresses kept ahead of the last used one.
func (s *Sequential) GapLimit() uint32 { return s.gap }

// Accounts returns how many accounts are prepared.
func (s *Sequential) Accounts() int { return len(s.derived) }

// PrepareNextAccount starts watching the next account.
func (s *Sequential) PrepareNextAccount() error {
	account := uint32(len(s.derived))
	acct, err := s.root.DeriveAccount(account)
	if err != nil {
		return err
	}
	for change := uint32(wallet.ChangeExternal); change <= wallet.ChangeInternal; change++ {
		if err := s.derive(acct, account, change, 0, s.gap); err != nil {
			return err
		}
	}
	s.derived = append(s.derived, [2]uint32{s.gap, s.gap})
	return nil
}

// derive adds indices [from, to) of one chain to the expected set.
func (s *Sequential) derive(acct *wallet.HDKey, account, change, from, to uint32) error {
	chain, err := acct.DeriveChild(change)
	if err != nil {
		return err
	}
	for i := from; i < to; i++ {
		key, err := chain.DeriveChild(i)
		if err != nil {
			return err
		}
		s.expected[key.Address()] = BIP44(account, change, i)
	}
	log.Wallet.Debug().
		Uint32("account", account).
		Uint32("change", change).
		Uint32("from", from).
		Uint32("to", to).
		Msg("Derived addresses")
	return nil
}

// Lookup implements AddressLookup.
func (s *Sequential) Lookup(utxo UTXO[types.Address]) (*UTXO[Addressing], error) {
	a, ok := s.expected[utxo.Address]
	if !ok {
		return nil, nil
	}
	if err := s.Acknowledge(a); err != nil {
		return nil, err
	}
	u := WithAddressing(utxo, a)
	return &u, nil
}

// Acknowledge implements AddressLookup. Once index is used, every index up
// to index+gap is watched. Accounts that are not prepared and unknown
// chains are ignored.
func (s *Sequential) Acknowledge(a Addressing) error {
	if a.Scheme != SchemeBIP44 {
		return fmt.Errorf("%w: %s", ErrUnsupportedAddressing, a)
	}
	if int64(a.Account) >= int64(len(s.derived)) || a.Change > wallet.ChangeInternal {
		return nil
	}
	have := s.derived[a.Account][a.Change]
	want := uint64(a.Index) + uint64(s.gap) + 1
	if want <= uint64(have) {
		return nil
	}
	if want > uint64(wallet.HardenedOffset) {
		return fmt.Errorf("index %d too close to the hardened range", a.Index)
	}
	acct, err := s.root.DeriveAccount(a.Account)
	if err != nil {
		return err
	}
	if err := s.derive(acct, a.Account, a.Change, have, uint32(want)); err != nil {
		return err
	}
	s.derived[a.Account][a.Change] = uint32(want)
	return nil
}

// Key implements Keyring.
func (s *Sequential) Key(a Addressing) (*wallet.HDKey, error) {
	if a.Scheme != SchemeBIP44 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddressing, a)
	}
	return s.root.DeriveAddress(a.Account, a.Change, a.Index)
}

// Address implements Keyring.
func (s *Sequential) Address(a Addressing) (types.Address, error) {
	key, err := s.Key(a)
	if err != nil {
		return types.Address{}, err
	}
	return key.Address(), nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/crypto"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// Denomination constants. All on-chain values are in base units.
const (
	Decimals  = 6
	Coin      = 1_000_000
	MilliCoin = 1_000
)

// Genesis describes the start of a chain. It is immutable after launch:
// its hash is the parent of the first boundary block, so changing any
// field produces a different chain.
type Genesis struct {
	// Chain identity
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Symbol    string `json:"symbol,omitempty"`

	// Genesis block
	Timestamp  uint64 `json:"timestamp"`
	ExtraData  string `json:"extra_data,omitempty"`
	EpochStart uint64 `json:"epoch_start"`

	// ProtocolMagic identifies the network in block headers and in
	// transaction signatures.
	ProtocolMagic uint32 `json:"protocol_magic"`

	// SlotsPerEpoch is informational; the client only relies on epoch
	// numbers changing.
	SlotsPerEpoch uint64 `json:"slots_per_epoch"`

	// Initial allocations (address -> balance in base units)
	Alloc map[string]uint64 `json:"alloc"`

	// Fee is the linear fee policy of the chain.
	Fee FeeConfig `json:"fee"`
}

const (
	// TestnetMnemonic is the well-known BIP-39 test phrase. Never use it
	// for real funds.
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	// TestnetFaucetAddress receives the testnet allocation.
	TestnetFaucetAddress = "tkgx13uayfwq9djh7cd5dagxtuzk3mx7r7sc9xv4h52"

	mainnetAllocAddress = "kgx1a8tfl79jgres7t90tttkc7ytjmhs5lpdn5ag4l"
)

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:       "klingnet-mainnet-1",
		ChainName:     "Klingnet Mainnet",
		Symbol:        "KGX",
		Timestamp:     1770734103, // 2026-02-10
		ExtraData:     "Klingnet Genesis",
		ProtocolMagic: 764824073,
		SlotsPerEpoch: 21600,
		Alloc: map[string]uint64{
			mainnetAllocAddress: 100_000 * Coin,
		},
		Fee: FeeConfig{Constant: 155381, Coefficient: 43946},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "klingnet-testnet-1"
	g.ChainName = "Klingnet Testnet"
	g.ExtraData = "Klingnet Testnet Genesis"
	g.ProtocolMagic = 1097911063
	g.SlotsPerEpoch = 4320
	g.Alloc = map[string]uint64{
		TestnetFaucetAddress: 200_000 * Coin,
	}
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	return ParseGenesis(data)
}

// ParseGenesis decodes and validates genesis JSON.
func ParseGenesis(data []byte) (*Genesis, error) {
	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}
	return nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if g.ProtocolMagic == 0 {
		return fmt.Errorf("protocol_magic is required")
	}

	var total types.Coin
	for addrStr, v := range g.Alloc {
		if _, err := types.ParseAddress(addrStr); err != nil {
			return fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		c, err := types.NewCoin(v)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addrStr, err)
		}
		if total, err = total.Add(c); err != nil {
			return fmt.Errorf("genesis allocations: %w", err)
		}
	}
	return nil
}

// Hash returns a BLAKE3 hash of the genesis configuration. It is the
// parent hash of the genesis block.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}

// Block returns the genesis block: the empty boundary block of
// EpochStart whose parent is the genesis hash.
func (g *Genesis) Block() (*block.Block, error) {
	prev, err := g.Hash()
	if err != nil {
		return nil, err
	}
	hdr := &block.Header{
		Version:       block.CurrentVersion,
		ProtocolMagic: g.ProtocolMagic,
		PrevHash:      prev,
		Date:          block.BoundaryDate(g.EpochStart),
	}
	return block.NewBlock(hdr, nil), nil
}

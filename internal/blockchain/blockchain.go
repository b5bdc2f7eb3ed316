// Package blockchain manages local mirrors of a chain: their directory
// and configuration, the local and remote tips, fetching blocks from
// peers and iterating over stored blocks in chain order.
package blockchain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Klingon-tech/klingnet-cli/config"
	"github.com/Klingon-tech/klingnet-cli/internal/blockstore"
	"github.com/Klingon-tech/klingnet-cli/internal/log"
	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

const (
	// Dir is the directory, under the data dir, holding every mirror.
	Dir = "blockchains"

	configFile  = "config.yml"
	genesisFile = "genesis.json"

	// TipTag names the local tip.
	TipTag = "tip"
)

// Config is the frozen description of a mirror's chain, stored as YAML.
type Config struct {
	ProtocolMagic uint32           `yaml:"protocol_magic"`
	Genesis       types.Hash       `yaml:"genesis"`
	GenesisPrev   types.Hash       `yaml:"genesis_prev"`
	EpochStart    uint64           `yaml:"epoch_start"`
	Fee           config.FeeConfig `yaml:"fee"`
	Peers         []config.Peer    `yaml:"peers"`
}

// LinearFee returns the chain's fee algorithm.
func (c *Config) LinearFee() tx.LinearFee {
	return tx.LinearFee{Constant: types.Coin(c.Fee.Constant), Coefficient: c.Fee.Coefficient}
}

// NewConfig derives a mirror config from a genesis and default peers.
func NewConfig(g *config.Genesis, peers []config.Peer) (*Config, error) {
	gb, err := g.Block()
	if err != nil {
		return nil, err
	}
	return &Config{
		ProtocolMagic: g.ProtocolMagic,
		Genesis:       gb.Hash(),
		GenesisPrev:   gb.Header.PrevHash,
		EpochStart:    g.EpochStart,
		Fee:           g.Fee,
		Peers:         append([]config.Peer(nil), peers...),
	}, nil
}

// Blockchain is an open local mirror.
type Blockchain struct {
	Name   string
	dir    string
	config *Config
	store  *blockstore.Store
}

// ValidateName checks that name can be used as a directory name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	}
	return nil
}

// Directory returns the directory of the mirror name under root.
func Directory(root, name string) string {
	return filepath.Join(root, Dir, name)
}

// New creates a mirror named name from genesis. The genesis block becomes
// the local tip and every configured peer's remote tip.
func New(root, name string, genesis *config.Genesis, peers []config.Peer) (*Blockchain, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	cfg, err := NewConfig(genesis, peers)
	if err != nil {
		return nil, err
	}
	dir := Directory(root, name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	store, err := blockstore.Open(dir)
	if err != nil {
		return nil, err
	}
	bc := &Blockchain{Name: name, dir: dir, config: cfg, store: store}

	if err := bc.Save(); err != nil {
		store.Close()
		return nil, err
	}
	if err := genesis.Save(filepath.Join(dir, genesisFile)); err != nil {
		store.Close()
		return nil, err
	}
	if err := bc.storeGenesis(genesis); err != nil {
		store.Close()
		return nil, err
	}
	if err := bc.SaveTip(cfg.Genesis); err != nil {
		store.Close()
		return nil, err
	}
	for _, p := range cfg.Peers {
		if err := store.WriteTag(remoteTag(p.Name), cfg.Genesis); err != nil {
			store.Close()
			return nil, err
		}
	}
	log.Blockchain.Info().Str("name", name).Str("genesis", cfg.Genesis.Short()).Msg("Created local blockchain")
	return bc, nil
}

func (bc *Blockchain) storeGenesis(genesis *config.Genesis) error {
	gb, err := genesis.Block()
	if err != nil {
		return err
	}
	if gb.Hash() != bc.config.Genesis {
		return fmt.Errorf("genesis data hashes to %s, config expects %s", gb.Hash(), bc.config.Genesis)
	}
	raw, err := gb.Encode()
	if err != nil {
		return err
	}
	_, err = bc.store.PutLoose(raw)
	return err
}

// Load opens an existing mirror.
func Load(root, name string) (*Blockchain, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := Directory(root, name)
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("read blockchain config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse blockchain config: %w", err)
	}

	store, err := blockstore.Open(dir)
	if err != nil {
		return nil, err
	}
	bc := &Blockchain{Name: name, dir: dir, config: &cfg, store: store}
	if err := bc.restoreGenesisData(); err != nil {
		log.Blockchain.Warn().Err(err).Str("name", name).Msg("Genesis data unavailable")
	}
	return bc, nil
}

// restoreGenesisData rewrites genesis.json from the built-in templates
// when a mirror lacks it.
func (bc *Blockchain) restoreGenesisData() error {
	path := filepath.Join(bc.dir, genesisFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	for _, name := range config.TemplateNames() {
		tpl, err := config.TemplateFor(name)
		if err != nil {
			return err
		}
		prev, err := tpl.Genesis.Hash()
		if err != nil {
			return err
		}
		if prev == bc.config.GenesisPrev {
			return tpl.Genesis.Save(path)
		}
	}
	return fmt.Errorf("no known genesis data for parent %s", bc.config.GenesisPrev)
}

// Genesis loads the genesis data of the mirror.
func (bc *Blockchain) Genesis() (*config.Genesis, error) {
	return config.LoadGenesis(filepath.Join(bc.dir, genesisFile))
}

// Save writes the mirror config.
func (bc *Blockchain) Save() error {
	data, err := yaml.Marshal(bc.config)
	if err != nil {
		return fmt.Errorf("encode blockchain config: %w", err)
	}
	tmp := filepath.Join(bc.dir, configFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write blockchain config: %w", err)
	}
	return os.Rename(tmp, filepath.Join(bc.dir, configFile))
}

// Close releases the block store.
func (bc *Blockchain) Close() error {
	return bc.store.Close()
}

// Destroy closes the mirror and deletes its directory.
func (bc *Blockchain) Destroy() error {
	bc.store.Close()
	if err := os.RemoveAll(bc.dir); err != nil {
		return fmt.Errorf("remove %s: %w", bc.dir, err)
	}
	log.Blockchain.Info().Str("name", bc.Name).Msg("Destroyed local blockchain")
	return nil
}

// Config returns the mirror config.
func (bc *Blockchain) Config() *Config {
	return bc.config
}

// Dir returns the mirror directory.
func (bc *Blockchain) Dir() string {
	return bc.dir
}

// Store exposes the underlying block store.
func (bc *Blockchain) Store() *blockstore.Store {
	return bc.store
}

// GetBlock returns the block with the given hash.
func (bc *Blockchain) GetBlock(hash types.Hash) (*block.Block, error) {
	raw, err := bc.store.Get(hash)
	if err != nil {
		if errors.Is(err, blockstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, hash)
		}
		return nil, err
	}
	return block.Decode(raw)
}

// List returns the names of the mirrors under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, Dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

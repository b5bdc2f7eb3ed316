package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-cli/internal/log"
)

const (
	// Dir is the directory, under the data dir, holding every wallet.
	Dir = "wallets"

	walletFile = "wallet.json"
	logFile    = "LOG"

	fileVersion = 1
)

// Scheme is the HD derivation model of a wallet.
type Scheme string

const (
	// SchemeBIP44 derives m/44'/8888'/account'/change/index and scans
	// sequentially with a gap limit.
	SchemeBIP44 Scheme = "bip44"
	// SchemeRandomIndex derives m/account'/index' and encrypts the path in
	// the address payload.
	SchemeRandomIndex Scheme = "rindex"
)

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeBIP44, SchemeRandomIndex:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("unknown wallet scheme %q (want %s or %s)", s, SchemeBIP44, SchemeRandomIndex)
}

var (
	ErrInvalidName     = errors.New("invalid wallet name")
	ErrWalletExists    = errors.New("wallet already exists")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrAlreadyAttached = errors.New("wallet already attached to a blockchain")
	ErrNotAttached     = errors.New("wallet is not attached to a blockchain")
)

// walletConfig is the on-disk JSON format of a wallet.
type walletConfig struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Scheme        Scheme    `json:"scheme"`
	EncryptedSeed []byte    `json:"encrypted_seed"`
	Blockchain    string    `json:"attached_blockchain,omitempty"`
}

// Wallet is a wallet directory: <root>/wallets/<name>/.
type Wallet struct {
	Name string
	dir  string
	cfg  walletConfig
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

// Directory returns the directory of wallet name under root.
func Directory(root, name string) string {
	return filepath.Join(root, Dir, name)
}

// Create writes a new wallet whose seed is sealed under password.
func Create(root, name string, scheme Scheme, seed, password []byte, params EncryptionParams) (*Wallet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	dir := Directory(root, name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrWalletExists, name)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt seed: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create wallet dir: %w", err)
	}
	w := &Wallet{
		Name: name,
		dir:  dir,
		cfg: walletConfig{
			Version:       fileVersion,
			CreatedAt:     time.Now().UTC(),
			Scheme:        scheme,
			EncryptedSeed: encrypted,
		},
	}
	if err := w.Save(); err != nil {
		return nil, err
	}
	log.Wallet.Info().Str("name", name).Str("scheme", string(scheme)).Msg("Created wallet")
	return w, nil
}

// Load reads an existing wallet.
func Load(root, name string) (*Wallet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := Directory(root, name)
	data, err := os.ReadFile(filepath.Join(dir, walletFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var cfg walletConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if cfg.Version != fileVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", cfg.Version)
	}
	if _, err := ParseScheme(string(cfg.Scheme)); err != nil {
		return nil, fmt.Errorf("wallet %s: %w", name, err)
	}
	return &Wallet{Name: name, dir: dir, cfg: cfg}, nil
}

// Save writes wallet.json, replacing it atomically.
func (w *Wallet) Save() error {
	data, err := json.MarshalIndent(&w.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := filepath.Join(w.dir, walletFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(w.dir, walletFile)); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

// Destroy removes the wallet directory, log included.
func (w *Wallet) Destroy() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove wallet %s: %w", w.Name, err)
	}
	log.Wallet.Info().Str("name", w.Name).Msg("Destroyed wallet")
	return nil
}

// Scheme returns the derivation model.
func (w *Wallet) Scheme() Scheme {
	return w.cfg.Scheme
}

// CreatedAt returns the creation time.
func (w *Wallet) CreatedAt() time.Time {
	return w.cfg.CreatedAt
}

// Blockchain returns the attached blockchain name, or "" when detached.
func (w *Wallet) Blockchain() string {
	return w.cfg.Blockchain
}

// RequireBlockchain returns the attached blockchain or ErrNotAttached.
func (w *Wallet) RequireBlockchain() (string, error) {
	if w.cfg.Blockchain == "" {
		return "", fmt.Errorf("%w: %s", ErrNotAttached, w.Name)
	}
	return w.cfg.Blockchain, nil
}

// LogPath returns the path of the wallet's event log.
func (w *Wallet) LogPath() string {
	return filepath.Join(w.dir, logFile)
}

// Attach binds the wallet to a blockchain. Checking that the blockchain
// exists is the caller's job.
func (w *Wallet) Attach(blockchain string) error {
	if w.cfg.Blockchain != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, w.cfg.Blockchain)
	}
	w.cfg.Blockchain = blockchain
	if err := w.Save(); err != nil {
		return err
	}
	log.Wallet.Info().Str("name", w.Name).Str("blockchain", blockchain).Msg("Attached wallet")
	return nil
}

// Detach unbinds the wallet and deletes its log, which only makes sense
// against the blockchain it was built from.
func (w *Wallet) Detach() error {
	if w.cfg.Blockchain == "" {
		return fmt.Errorf("%w: %s", ErrNotAttached, w.Name)
	}
	if err := os.Remove(w.LogPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete wallet log: %w", err)
	}
	w.cfg.Blockchain = ""
	return w.Save()
}

// Seed decrypts the root seed.
func (w *Wallet) Seed(password []byte) ([]byte, error) {
	seed, err := Decrypt(w.cfg.EncryptedSeed, password)
	if err != nil {
		return nil, err
	}
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("wallet %s: decrypted seed has %d bytes", w.Name, len(seed))
	}
	return seed, nil
}

// RootKey decrypts the seed and returns the master key.
func (w *Wallet) RootKey(password []byte) (*HDKey, error) {
	seed, err := w.Seed(password)
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	return NewMasterKey(seed)
}

// List returns the names of the wallets under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, Dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wallets dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || ValidateName(e.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, Dir, e.Name(), walletFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

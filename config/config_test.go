package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("datadir", t.TempDir())

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != Mainnet {
		t.Errorf("Network = %q, want mainnet", cfg.Network)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Wallet.GapLimit != DefaultGapLimit {
		t.Errorf("GapLimit = %d, want %d", cfg.Wallet.GapLimit, DefaultGapLimit)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := "log:\n  level: debug\nwallet:\n  gap_limit: 5\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	v.Set("datadir", dir)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Wallet.GapLimit != 5 {
		t.Errorf("GapLimit = %d, want 5", cfg.Wallet.GapLimit)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("KLINGNET_CLI_LOG_LEVEL", "error")
	v := viper.New()
	v.Set("datadir", t.TempDir())

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultTestnet()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default testnet config invalid: %v", err)
	}

	bad := DefaultMainnet()
	bad.Log.Level = "loud"
	if err := Validate(bad); err == nil {
		t.Error("unknown log level accepted")
	}

	bad = DefaultMainnet()
	bad.Wallet.GapLimit = 0
	if err := Validate(bad); err == nil {
		t.Error("zero gap limit accepted")
	}

	if err := Validate(nil); err == nil {
		t.Error("nil config accepted")
	}
}

func TestConfigDirs(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if cfg.BlockchainsDir() != filepath.Join("/data", "blockchains") {
		t.Errorf("BlockchainsDir = %s", cfg.BlockchainsDir())
	}
	if cfg.PendingDir() != filepath.Join("/data", "pending") {
		t.Errorf("PendingDir = %s", cfg.PendingDir())
	}
}

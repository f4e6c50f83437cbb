package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"tipfinity/config"
	"tipfinity/crypto"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key != genesisPathEnv {
			t.Fatalf("unexpected lookup key: %s", key)
		}
		return "env-path", true
	}

	if got := resolveGenesisPath("cli-path", "cfg-path", lookup); got != "cli-path" {
		t.Fatalf("cli flag should win, got %q", got)
	}
	if got := resolveGenesisPath("", "cfg-path", lookup); got != "env-path" {
		t.Fatalf("environment should override config, got %q", got)
	}
	empty := func(string) (string, bool) { return "", false }
	if got := resolveGenesisPath("", " cfg-path ", empty); got != "cfg-path" {
		t.Fatalf("config should be used last, got %q", got)
	}
	if got := resolveGenesisPath("", "", empty); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}

func writeGenesis(t *testing.T, chainID uint64) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	doc := fmt.Sprintf(`{"chainId": %d, "alloc": [{"address": %q, "balance": "10"}]}`, chainID, key.PubKey().Address().String())
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	return path
}

func TestLoadGenesisReconcilesChainID(t *testing.T) {
	cfg := config.Default()

	spec, err := loadGenesis(cfg, "")
	if err != nil {
		t.Fatalf("empty genesis: %v", err)
	}
	if spec.ChainID != nil {
		t.Fatalf("expected no explicit chain id")
	}

	cfg.ChainID = 77
	spec, err = loadGenesis(cfg, "")
	if err != nil || spec.ChainIDValue() != 77 {
		t.Fatalf("config chain id not applied: %v", err)
	}

	path := writeGenesis(t, 77)
	if _, err := loadGenesis(cfg, path); err != nil {
		t.Fatalf("matching chain id rejected: %v", err)
	}

	cfg.ChainID = 78
	if _, err := loadGenesis(cfg, path); err == nil {
		t.Fatalf("expected conflicting chain id to fail")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

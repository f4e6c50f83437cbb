package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tipfinity/core/state"
	"tipfinity/crypto"
	"tipfinity/storage"
)

func testAddress(b byte) ([20]byte, string) {
	raw := bytes.Repeat([]byte{b}, 20)
	addr := crypto.MustNewAddress(crypto.TipPrefix, raw)
	return addr.Array(), addr.String()
}

func TestLoadGenesisSpecAndApply(t *testing.T) {
	addr1, bech1 := testAddress(0x01)
	addr2, bech2 := testAddress(0x02)
	doc := fmt.Sprintf(`{
  "genesisTime": "2024-01-01T00:00:00Z",
  "chainId": 42,
  "alloc": [
    {"address": %q, "balance": "1000"},
    {"address": %q, "balance": "2000"}
  ]
}`, bech1, bech2)
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}

	spec, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load genesis: %v", err)
	}
	if spec.ChainIDValue() != 42 {
		t.Fatalf("chain id = %d", spec.ChainIDValue())
	}
	if spec.GenesisTimestamp().Year() != 2024 {
		t.Fatalf("genesis time not parsed")
	}

	db := storage.NewMemDB()
	defer db.Close()
	mgr := state.NewManager(db)
	applied, err := Apply(spec, mgr)
	if err != nil || !applied {
		t.Fatalf("apply: %v %v", applied, err)
	}
	acc1, _ := mgr.Account(addr1)
	acc2, _ := mgr.Account(addr2)
	if acc1.Balance != 1000 || acc2.Balance != 2000 {
		t.Fatalf("balances = %d/%d", acc1.Balance, acc2.Balance)
	}

	applied, err = Apply(spec, mgr)
	if err != nil || applied {
		t.Fatalf("second apply: %v %v", applied, err)
	}
	acc1, _ = mgr.Account(addr1)
	if acc1.Balance != 1000 {
		t.Fatalf("genesis credited twice: %d", acc1.Balance)
	}

	other := uint64(43)
	spec.ChainID = &other
	if _, err := Apply(spec, mgr); !errors.Is(err, ErrChainIDConflict) {
		t.Fatalf("conflicting chain id err = %v", err)
	}

	// A restart without a genesis file keeps the stored chain.
	if applied, err := Apply(&GenesisSpec{}, mgr); err != nil || applied {
		t.Fatalf("reopen without genesis: %v %v", applied, err)
	}
}

func TestParseGenesisSpecRejectsBadInput(t *testing.T) {
	_, bech := testAddress(0x03)
	foreign := crypto.MustNewAddress(crypto.AddressPrefix("nhb"), bytes.Repeat([]byte{0x04}, 20)).String()
	cases := map[string]string{
		"unknown field":     `{"alloc": [], "validators": []}`,
		"zero chain id":     `{"chainId": 0, "alloc": []}`,
		"bad time":          `{"genesisTime": "yesterday", "alloc": []}`,
		"foreign prefix":    fmt.Sprintf(`{"alloc": [{"address": %q, "balance": "1"}]}`, foreign),
		"negative balance":  fmt.Sprintf(`{"alloc": [{"address": %q, "balance": "-1"}]}`, bech),
		"duplicate address": fmt.Sprintf(`{"alloc": [{"address": %q, "balance": "1"}, {"address": %q, "balance": "2"}]}`, bech, bech),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseGenesisSpec([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestChainIDDefaults(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(`{"alloc": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.ChainIDValue() == 0 {
		t.Fatalf("default chain id not applied")
	}
}

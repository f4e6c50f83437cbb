package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tipfinity/core/types"
	"tipfinity/crypto"
)

// GenesisSpec is the JSON document seeding an empty ledger.
type GenesisSpec struct {
	GenesisTime string      `json:"genesisTime,omitempty"`
	ChainID     *uint64     `json:"chainId,omitempty"`
	Alloc       []AllocSpec `json:"alloc"`

	genesisTimestamp time.Time
	allocations      []allocation
}

// AllocSpec credits Balance native units to Address at genesis.
type AllocSpec struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type allocation struct {
	addr    [20]byte
	balance uint64
}

// LoadGenesisSpec reads and validates the genesis file at path. Unknown
// fields are rejected.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a genesis document.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

// ChainIDValue returns the configured chain id, defaulting to
// types.DefaultChainID.
func (s *GenesisSpec) ChainIDValue() uint64 {
	if s == nil || s.ChainID == nil {
		return types.DefaultChainID
	}
	return *s.ChainID
}

// GenesisTimestamp returns the parsed genesis time; zero when unset.
func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func (s *GenesisSpec) validate() error {
	if strings.TrimSpace(s.GenesisTime) != "" {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s.GenesisTime))
		if err != nil {
			return fmt.Errorf("genesisTime: %w", err)
		}
		s.genesisTimestamp = ts.UTC()
	}
	if s.ChainID != nil && *s.ChainID == 0 {
		return fmt.Errorf("chainId must be non-zero")
	}
	seen := make(map[[20]byte]struct{}, len(s.Alloc))
	s.allocations = s.allocations[:0]
	for i, entry := range s.Alloc {
		addr, err := crypto.ParseAddress(strings.TrimSpace(entry.Address))
		if err != nil {
			return fmt.Errorf("alloc[%d]: %w", i, err)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("alloc[%d]: duplicate address %s", i, entry.Address)
		}
		seen[addr] = struct{}{}
		balance, err := strconv.ParseUint(strings.TrimSpace(entry.Balance), 10, 64)
		if err != nil {
			return fmt.Errorf("alloc[%d]: invalid balance %q: %w", i, entry.Balance, err)
		}
		s.allocations = append(s.allocations, allocation{addr: addr, balance: balance})
	}
	return nil
}

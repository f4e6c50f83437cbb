package genesis

import (
	"errors"
	"fmt"

	"tipfinity/core/state"
)

// ErrChainIDConflict is returned when a database initialised for one chain is
// opened with a genesis for another.
var ErrChainIDConflict = errors.New("genesis: chain id conflicts with stored genesis")

// Apply seeds an empty ledger from spec in one atomic commit. When genesis has
// already run it only verifies an explicitly configured chain id and reports
// applied=false.
func Apply(spec *GenesisSpec, mgr *state.Manager) (bool, error) {
	if spec == nil {
		return false, fmt.Errorf("genesis spec must not be nil")
	}
	if mgr == nil {
		return false, fmt.Errorf("state manager must not be nil")
	}
	if err := mgr.EnsureStateVersion(); err != nil {
		return false, err
	}
	stored, ok, err := mgr.GenesisChainID()
	if err != nil {
		return false, err
	}
	if ok {
		if spec.ChainID != nil && stored != *spec.ChainID {
			return false, fmt.Errorf("%w: stored %d, genesis %d", ErrChainIDConflict, stored, *spec.ChainID)
		}
		return false, nil
	}

	txn := mgr.Begin()
	defer txn.Discard()
	for _, alloc := range spec.allocations {
		if err := txn.Credit(alloc.addr, alloc.balance); err != nil {
			return false, fmt.Errorf("credit genesis allocation: %w", err)
		}
	}
	if err := txn.SetStateVersion(state.StateVersion); err != nil {
		return false, err
	}
	if err := txn.MarkGenesis(spec.ChainIDValue()); err != nil {
		return false, err
	}
	if err := txn.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

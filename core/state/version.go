package state

import (
	"errors"
	"fmt"
)

// StateVersion identifies the expected on-disk schema layout. Increment it
// whenever record layouts or key derivation change.
const StateVersion uint32 = 1

var (
	stateVersionKey = []byte("state/version")
	genesisKey      = []byte("state/genesis")
	// ErrStateVersionMismatch indicates the stored schema version does not
	// match the version supported by the current binary.
	ErrStateVersionMismatch = errors.New("state: schema version mismatch")
)

// SetStateVersion stages the schema version marker.
func (t *Txn) SetStateVersion(version uint32) error {
	return t.KVPut(stateVersionKey, uint64(version))
}

// StateVersion returns the stored schema version and whether it was present.
func (m *Manager) StateVersion() (uint32, bool, error) {
	var stored uint64
	ok, err := m.KVGet(stateVersionKey, &stored)
	if err != nil || !ok {
		return 0, ok, err
	}
	return uint32(stored), true, nil
}

// EnsureStateVersion verifies the stored schema matches StateVersion. An
// uninitialised database passes.
func (m *Manager) EnsureStateVersion() error {
	version, ok, err := m.StateVersion()
	if err != nil {
		return err
	}
	if ok && version != StateVersion {
		return fmt.Errorf("%w: stored %d, supported %d", ErrStateVersionMismatch, version, StateVersion)
	}
	return nil
}

// MarkGenesis stages the marker recording that genesis has been applied.
func (t *Txn) MarkGenesis(chainID uint64) error {
	return t.KVPut(genesisKey, chainID)
}

// GenesisChainID returns the chain id recorded at genesis, if any.
func (m *Manager) GenesisChainID() (uint64, bool, error) {
	var chainID uint64
	ok, err := m.KVGet(genesisKey, &chainID)
	return chainID, ok, err
}

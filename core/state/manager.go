package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"tipfinity/core/types"
	"tipfinity/storage"
)

var (
	accountPrefix = []byte("account:")
	recordPrefix  = []byte("record:")
	kvPrefix      = []byte("kv:")
)

// Manager provides read access to committed state and opens staging
// transactions for writes.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func prefixedKey(prefix, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func accountKey(addr [20]byte) []byte { return prefixedKey(accountPrefix, addr[:]) }

func recordKey(addr [20]byte) []byte { return prefixedKey(recordPrefix, addr[:]) }

func kvKey(key []byte) []byte { return prefixedKey(kvPrefix, key) }

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state: manager unavailable")
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Account returns the committed account for addr. Unknown addresses yield a
// zero account.
func (m *Manager) Account(addr [20]byte) (*types.Account, error) {
	return loadAccount(m.get, addr)
}

// RecordGet returns the committed record blob stored at addr.
func (m *Manager) RecordGet(addr [20]byte) ([]byte, bool, error) {
	return m.get(recordKey(addr))
}

// KVGet decodes the committed RLP value stored under key into out.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	return kvGet(m.get, key, out)
}

// Begin opens a staging transaction over the committed state.
func (m *Manager) Begin() *Txn {
	return newTxn(m)
}

type getter func(key []byte) ([]byte, bool, error)

func loadAccount(get getter, addr [20]byte) (*types.Account, error) {
	raw, ok, err := get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	account := new(types.Account)
	if !ok {
		return account, nil
	}
	if err := rlp.DecodeBytes(raw, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return account, nil
}

func kvGet(get getter, key []byte, out interface{}) (bool, error) {
	raw, ok, err := get(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode kv: %w", err)
	}
	return true, nil
}

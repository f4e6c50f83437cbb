package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	hosterrors "tipfinity/core/errors"
	"tipfinity/core/types"
)

// ErrTxnClosed is returned when a transaction is used after Commit or Discard.
var ErrTxnClosed = errors.New("state: transaction closed")

// Txn stages writes in memory on top of committed state. Reads observe staged
// writes first. Commit persists every staged key in one storage batch;
// Discard drops them. Nothing reaches the database before Commit.
type Txn struct {
	mgr    *Manager
	staged map[string][]byte
	closed bool
}

func newTxn(mgr *Manager) *Txn {
	return &Txn{mgr: mgr, staged: make(map[string][]byte)}
}

func (t *Txn) get(key []byte) ([]byte, bool, error) {
	if t.closed {
		return nil, false, ErrTxnClosed
	}
	if value, ok := t.staged[string(key)]; ok {
		return append([]byte(nil), value...), true, nil
	}
	return t.mgr.get(key)
}

func (t *Txn) put(key, value []byte) error {
	if t.closed {
		return ErrTxnClosed
	}
	t.staged[string(key)] = append([]byte(nil), value...)
	return nil
}

// Pending reports how many keys are staged.
func (t *Txn) Pending() int { return len(t.staged) }

// Account returns the account as seen by this transaction.
func (t *Txn) Account(addr [20]byte) (*types.Account, error) {
	return loadAccount(t.get, addr)
}

// PutAccount stages the account.
func (t *Txn) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return err
	}
	return t.put(accountKey(addr), encoded)
}

// IncrementNonce bumps the replay-protection nonce of addr.
func (t *Txn) IncrementNonce(addr [20]byte) error {
	account, err := t.Account(addr)
	if err != nil {
		return err
	}
	account.Nonce++
	return t.PutAccount(addr, account)
}

// Credit adds amount to the balance of addr. Used for genesis allocations.
func (t *Txn) Credit(addr [20]byte, amount uint64) error {
	account, err := t.Account(addr)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(account.Balance), uint256.NewInt(amount))
	if overflow || !sum.IsUint64() {
		return hosterrors.ErrBalanceOverflow
	}
	account.Balance = sum.Uint64()
	return t.PutAccount(addr, account)
}

// Transfer is the native value-movement primitive.
func (t *Txn) Transfer(from, to [20]byte, amount uint64) error {
	sender, err := t.Account(from)
	if err != nil {
		return err
	}
	if sender.Balance < amount {
		return fmt.Errorf("%w: have %d, need %d", hosterrors.ErrInsufficientBalance, sender.Balance, amount)
	}
	if from == to {
		return nil
	}
	recipient, err := t.Account(to)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(recipient.Balance), uint256.NewInt(amount))
	if overflow || !sum.IsUint64() {
		return hosterrors.ErrBalanceOverflow
	}
	sender.Balance -= amount
	recipient.Balance = sum.Uint64()
	if err := t.PutAccount(from, sender); err != nil {
		return err
	}
	return t.PutAccount(to, recipient)
}

// RecordGet returns the record blob at addr as seen by this transaction.
func (t *Txn) RecordGet(addr [20]byte) ([]byte, bool, error) {
	return t.get(recordKey(addr))
}

// RecordCreate allocates a record. Occupied addresses are refused.
func (t *Txn) RecordCreate(addr [20]byte, data []byte) error {
	_, exists, err := t.RecordGet(addr)
	if err != nil {
		return err
	}
	if exists {
		return hosterrors.ErrAddressInUse
	}
	return t.put(recordKey(addr), data)
}

// RecordUpdate overwrites an existing record.
func (t *Txn) RecordUpdate(addr [20]byte, data []byte) error {
	_, exists, err := t.RecordGet(addr)
	if err != nil {
		return err
	}
	if !exists {
		return hosterrors.ErrRecordNotFound
	}
	return t.put(recordKey(addr), data)
}

// KVGet decodes the RLP value under key, staged writes first.
func (t *Txn) KVGet(key []byte, out interface{}) (bool, error) {
	return kvGet(t.get, key, out)
}

// KVPut stages an RLP encoded value under key.
func (t *Txn) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return t.put(kvKey(key), encoded)
}

// Commit writes all staged keys in a single atomic batch and closes the
// transaction. A failed write leaves the database unchanged.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true
	if len(t.staged) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t.staged))
	for k := range t.staged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := t.mgr.db.NewBatch()
	for _, k := range keys {
		batch.Put([]byte(k), t.staged[k])
	}
	t.staged = nil
	if err := t.mgr.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// Discard drops every staged write. Safe to call after Commit.
func (t *Txn) Discard() {
	t.closed = true
	t.staged = nil
}

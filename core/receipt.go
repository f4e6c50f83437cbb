package core

import (
	"errors"

	hosterrors "tipfinity/core/errors"
	"tipfinity/core/types"
	"tipfinity/native/creator"
)

// ReceiptStatus is the discriminated outcome of a transaction.
type ReceiptStatus string

const (
	StatusCommitted ReceiptStatus = "committed"
	StatusFailed    ReceiptStatus = "failed"
)

// KindRejected marks transactions refused by the runtime before any program
// code ran: wrong chain, bad signature or stale nonce.
const KindRejected = "rejected"

// Receipt reports what a transaction did. Program fields are set only for the
// matching transaction type and only when Status is StatusCommitted.
type Receipt struct {
	TxHash    [32]byte
	Type      types.TxType
	From      [20]byte
	Nonce     uint64
	Status    ReceiptStatus
	ErrorKind string
	ErrorCode string
	Error     string
	// Writes counts the state keys persisted by a committed transaction.
	Writes int

	Amount    uint64
	Creator   [20]byte
	Tip       [20]byte
	Sequence  uint64
	TipCount  uint64
	TotalTips uint64
	Timestamp int64
}

// Committed reports whether the transaction's effects were persisted.
func (r *Receipt) Committed() bool { return r != nil && r.Status == StatusCommitted }

// ErrorKindOf classifies any error produced while applying a transaction.
func ErrorKindOf(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, hosterrors.ErrChainIDMismatch),
		errors.Is(err, hosterrors.ErrInvalidSignature),
		errors.Is(err, hosterrors.ErrNonceMismatch):
		return KindRejected
	case errors.Is(err, hosterrors.ErrMalformedPayload),
		errors.Is(err, hosterrors.ErrUnknownTxType):
		return creator.KindValidation.String()
	}
	return creator.KindOf(err).String()
}

// ErrorCodeOf returns a stable code for err.
func ErrorCodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, hosterrors.ErrChainIDMismatch):
		return "CHAIN_ID_MISMATCH"
	case errors.Is(err, hosterrors.ErrInvalidSignature):
		return "INVALID_SIGNATURE"
	case errors.Is(err, hosterrors.ErrNonceMismatch):
		return "NONCE_MISMATCH"
	case errors.Is(err, hosterrors.ErrMalformedPayload):
		return "MALFORMED_PAYLOAD"
	case errors.Is(err, hosterrors.ErrUnknownTxType):
		return "UNKNOWN_TX_TYPE"
	}
	return creator.CodeOf(err)
}

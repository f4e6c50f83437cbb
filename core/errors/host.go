package errors

import stderrors "errors"

// Host-level failures raised by the runtime rather than by a native program.
// Programs surface these unchanged.
var (
	ErrAddressInUse        = stderrors.New("host: address already in use")
	ErrRecordNotFound      = stderrors.New("host: record not found")
	ErrInsufficientBalance = stderrors.New("host: insufficient balance")
	ErrBalanceOverflow     = stderrors.New("host: balance overflow")
	ErrNonceMismatch       = stderrors.New("host: nonce mismatch")
	ErrChainIDMismatch     = stderrors.New("host: chain id mismatch")
	ErrInvalidSignature    = stderrors.New("host: invalid signature")
	ErrUnknownTxType       = stderrors.New("host: unknown transaction type")
	ErrMalformedPayload    = stderrors.New("host: malformed payload")
)

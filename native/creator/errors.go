package creator

import (
	"errors"

	hosterrors "tipfinity/core/errors"
)

// Kind classifies a failed transition for callers.
type Kind uint8

const (
	KindNone Kind = iota
	KindValidation
	KindOverflow
	KindAuthorization
	KindTransfer
	KindAllocation
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindOverflow:
		return "overflow"
	case KindAuthorization:
		return "authorization_mismatch"
	case KindTransfer:
		return "transfer_failure"
	case KindAllocation:
		return "host_allocation_failure"
	default:
		return "internal"
	}
}

// Error is a program failure with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "creator: " + e.Message
}

var (
	ErrUsernameTooLong = &Error{Kind: KindValidation, Code: "USERNAME_TOO_LONG", Message: "username exceeds 32 bytes"}
	ErrInvalidUsername = &Error{Kind: KindValidation, Code: "INVALID_USERNAME", Message: "username is not valid UTF-8"}
	ErrInvalidAmount   = &Error{Kind: KindValidation, Code: "INVALID_AMOUNT", Message: "amount must be positive"}
	ErrMessageTooLong  = &Error{Kind: KindValidation, Code: "MESSAGE_TOO_LONG", Message: "annotation exceeds 256 bytes"}
	ErrInvalidRecord   = &Error{Kind: KindValidation, Code: "INVALID_RECORD", Message: "record is not a creator account"}
	ErrCreatorNotFound = &Error{Kind: KindValidation, Code: "CREATOR_NOT_FOUND", Message: "creator record not found"}
	ErrOverflow        = &Error{Kind: KindOverflow, Code: "OVERFLOW", Message: "counter overflow"}
	ErrWalletMismatch  = &Error{Kind: KindAuthorization, Code: "AUTHORIZATION_MISMATCH", Message: "wallet does not match creator owner"}

	errNilState = &Error{Kind: KindInternal, Code: "STATE_UNAVAILABLE", Message: "state not configured"}
)

// KindOf classifies err. Host failures raised by the runtime map onto the
// transfer and allocation kinds; anything unrecognised is internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var programErr *Error
	if errors.As(err, &programErr) {
		return programErr.Kind
	}
	switch {
	case errors.Is(err, hosterrors.ErrInsufficientBalance), errors.Is(err, hosterrors.ErrBalanceOverflow):
		return KindTransfer
	case errors.Is(err, hosterrors.ErrAddressInUse), errors.Is(err, hosterrors.ErrRecordNotFound):
		return KindAllocation
	default:
		return KindInternal
	}
}

// CodeOf returns the stable code for err, or the kind label for host errors.
func CodeOf(err error) string {
	var programErr *Error
	if errors.As(err, &programErr) {
		return programErr.Code
	}
	switch {
	case errors.Is(err, hosterrors.ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, hosterrors.ErrBalanceOverflow):
		return "BALANCE_OVERFLOW"
	case errors.Is(err, hosterrors.ErrAddressInUse):
		return "ADDRESS_IN_USE"
	case errors.Is(err, hosterrors.ErrRecordNotFound):
		return "RECORD_NOT_FOUND"
	}
	if err == nil {
		return ""
	}
	return "INTERNAL"
}

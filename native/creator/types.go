package creator

import "bytes"

const (
	// UsernameCapacity is the fixed width of the username field.
	UsernameCapacity = 32
	// MaxAnnotationLength caps the caller-supplied tip annotation.
	MaxAnnotationLength = 256
)

// Creator is the per-owner record holding the tip aggregates.
type Creator struct {
	Owner     [20]byte
	Username  [UsernameCapacity]byte
	TipCount  uint64
	TotalTips uint64
}

// UsernameString returns the username with trailing padding removed.
func (c *Creator) UsernameString() string {
	if c == nil {
		return ""
	}
	return string(bytes.TrimRight(c.Username[:], "\x00"))
}

// TipRecord is the immutable audit entry written once per successful tip.
type TipRecord struct {
	Creator    [20]byte
	Tipper     [20]byte
	Amount     uint64
	Timestamp  int64
	Sequence   uint64
	TxHash     [32]byte
	Annotation []byte
}

// TipRequest carries the caller-controlled inputs of a tip. The tipper is not
// part of the request; it is the identity the runtime authenticated.
type TipRequest struct {
	Creator    [20]byte
	Wallet     [20]byte
	Amount     uint64
	Annotation []byte
	TxHash     [32]byte
}

// Registration is the outcome of a successful creator registration.
type Registration struct {
	Address [20]byte
	Creator *Creator
}

// TipResult is the outcome of a successful tip.
type TipResult struct {
	Address        [20]byte
	Tip            *TipRecord
	CreatorAddress [20]byte
	Creator        *Creator
}

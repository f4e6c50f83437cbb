package types

// Account is the host-level view of an identity: a replay-protection nonce and
// a native balance. Program records live in separate address space.
type Account struct {
	Nonce   uint64 `json:"nonce"`
	Balance uint64 `json:"balance"`
}

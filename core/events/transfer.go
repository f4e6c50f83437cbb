package events

import (
	"strconv"

	"tipfinity/core/types"
	"tipfinity/crypto"
)

// TypeTransfer marks a wallet-initiated native balance movement.
const TypeTransfer = "transfer.native"

// Transfer is released once a TxTypeTransfer transaction commits.
type Transfer struct {
	From   [20]byte
	To     [20]byte
	Amount uint64
	Nonce  uint64
	TxHash [32]byte
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"from":   crypto.FormatAddress(e.From),
		"to":     crypto.FormatAddress(e.To),
		"amount": strconv.FormatUint(e.Amount, 10),
		"nonce":  strconv.FormatUint(e.Nonce, 10),
	}
	setHash(attrs, "txHash", e.TxHash)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

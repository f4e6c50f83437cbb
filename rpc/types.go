package rpc

import (
	"encoding/hex"
	"strconv"

	"tipfinity/core"
	"tipfinity/core/types"
	"tipfinity/crypto"
	"tipfinity/native/creator"
)

// AccountResult is returned by tip_getAccount.
type AccountResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// CreatorResult renders a creator record.
type CreatorResult struct {
	Address   string `json:"address"`
	Owner     string `json:"owner"`
	Username  string `json:"username"`
	TipCount  uint64 `json:"tipCount"`
	TotalTips string `json:"totalTips"`
}

// TipResult renders a tip record.
type TipResult struct {
	Address    string `json:"address"`
	Creator    string `json:"creator"`
	Tipper     string `json:"tipper"`
	Amount     uint64 `json:"amount"`
	Timestamp  int64  `json:"timestamp"`
	Sequence   uint64 `json:"sequence"`
	TxHash     string `json:"txHash"`
	Annotation string `json:"annotation"`
}

// TipsPage is returned by tip_listTips.
type TipsPage struct {
	Creator    CreatorResult `json:"creator"`
	Tips       []TipResult   `json:"tips"`
	NextOffset *uint64       `json:"nextOffset,omitempty"`
}

// ReceiptResult renders a committed transaction.
type ReceiptResult struct {
	TxHash    string  `json:"txHash"`
	Type      string  `json:"type"`
	From      string  `json:"from"`
	Nonce     uint64  `json:"nonce"`
	Status    string  `json:"status"`
	Amount    uint64  `json:"amount,omitempty"`
	Creator   string  `json:"creator,omitempty"`
	Tip       string  `json:"tip,omitempty"`
	Sequence  *uint64 `json:"sequence,omitempty"`
	TipCount  uint64  `json:"tipCount,omitempty"`
	TotalTips string  `json:"totalTips,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// TransactionError is the data attached to a failed tip_sendTransaction.
type TransactionError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TxHash  string `json:"txHash,omitempty"`
}

// DerivedAddresses is returned by tip_deriveAddresses.
type DerivedAddresses struct {
	Creator string `json:"creator"`
	Tip     string `json:"tip,omitempty"`
}

type creatorQuery struct {
	Address string `json:"address,omitempty"`
	Owner   string `json:"owner,omitempty"`
}

type tipQuery struct {
	Creator  string `json:"creator"`
	Sequence uint64 `json:"sequence"`
}

type listTipsQuery struct {
	Creator string `json:"creator"`
	Offset  uint64 `json:"offset"`
	Limit   uint64 `json:"limit"`
}

type deriveQuery struct {
	Owner    string  `json:"owner"`
	Sequence *uint64 `json:"sequence,omitempty"`
}

func hexHash(hash [32]byte) string {
	return "0x" + hex.EncodeToString(hash[:])
}

var zeroAddress [20]byte

func optionalAddress(addr [20]byte) string {
	if addr == zeroAddress {
		return ""
	}
	return crypto.FormatAddress(addr)
}

func creatorResultFrom(addr [20]byte, c *creator.Creator) CreatorResult {
	return CreatorResult{
		Address:   crypto.FormatAddress(addr),
		Owner:     crypto.FormatAddress(c.Owner),
		Username:  c.UsernameString(),
		TipCount:  c.TipCount,
		TotalTips: strconv.FormatUint(c.TotalTips, 10),
	}
}

func tipResultFrom(addr [20]byte, t *creator.TipRecord) TipResult {
	return TipResult{
		Address:    crypto.FormatAddress(addr),
		Creator:    crypto.FormatAddress(t.Creator),
		Tipper:     crypto.FormatAddress(t.Tipper),
		Amount:     t.Amount,
		Timestamp:  t.Timestamp,
		Sequence:   t.Sequence,
		TxHash:     hexHash(t.TxHash),
		Annotation: string(t.Annotation),
	}
}

func receiptResultFrom(r *core.Receipt) ReceiptResult {
	out := ReceiptResult{
		TxHash:  hexHash(r.TxHash),
		Type:    r.Type.String(),
		From:    crypto.FormatAddress(r.From),
		Nonce:   r.Nonce,
		Status:  string(r.Status),
		Amount:  r.Amount,
		Creator: optionalAddress(r.Creator),
	}
	if r.Type == types.TxTypeRecordTip {
		seq := r.Sequence
		out.Tip = optionalAddress(r.Tip)
		out.Sequence = &seq
		out.TipCount = r.TipCount
		out.TotalTips = strconv.FormatUint(r.TotalTips, 10)
		out.Timestamp = r.Timestamp
	}
	return out
}

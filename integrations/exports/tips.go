package exports

import (
	"encoding/hex"
	"fmt"

	"tipfinity/core"
	"tipfinity/crypto"
	"tipfinity/native/creator"
	"tipfinity/rpc"
)

// TipRow is the flattened form of one tip record shared by every export
// format.
type TipRow struct {
	Creator    string
	Sequence   uint64
	Address    string
	Tipper     string
	Amount     uint64
	Timestamp  int64
	TxHash     string
	Annotation string
}

// TipSource pages through the tips of a creator. *core.Node satisfies it.
type TipSource interface {
	Tips(creatorAddr [20]byte, offset, limit uint64) ([]core.IndexedTip, *creator.Creator, error)
}

// Collect reads every tip of the creator at creatorAddr in sequence order.
func Collect(src TipSource, creatorAddr [20]byte) ([]TipRow, error) {
	if src == nil {
		return nil, fmt.Errorf("exports: nil tip source")
	}
	var (
		rows   []TipRow
		offset uint64
	)
	for {
		page, record, err := src.Tips(creatorAddr, offset, core.MaxTipsPage)
		if err != nil {
			return nil, err
		}
		for _, entry := range page {
			rows = append(rows, rowFromRecord(entry.Address, entry.Tip))
		}
		offset += uint64(len(page))
		if len(page) == 0 || offset >= record.TipCount {
			return rows, nil
		}
	}
}

func rowFromRecord(addr [20]byte, tip *creator.TipRecord) TipRow {
	return TipRow{
		Creator:    crypto.FormatAddress(tip.Creator),
		Sequence:   tip.Sequence,
		Address:    crypto.FormatAddress(addr),
		Tipper:     crypto.FormatAddress(tip.Tipper),
		Amount:     tip.Amount,
		Timestamp:  tip.Timestamp,
		TxHash:     "0x" + hex.EncodeToString(tip.TxHash[:]),
		Annotation: string(tip.Annotation),
	}
}

// FromRPC converts tips fetched over JSON-RPC.
func FromRPC(results []rpc.TipResult) []TipRow {
	rows := make([]TipRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, TipRow{
			Creator:    r.Creator,
			Sequence:   r.Sequence,
			Address:    r.Address,
			Tipper:     r.Tipper,
			Amount:     r.Amount,
			Timestamp:  r.Timestamp,
			TxHash:     r.TxHash,
			Annotation: r.Annotation,
		})
	}
	return rows
}

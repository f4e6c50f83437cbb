package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"
)

// TipsCSV builds a CSV export for the supplied tips and returns the serialised
// data alongside a SHA-256 checksum of the payload.
func TipsCSV(rows []TipRow) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := []string{"creator", "sequence", "tip", "tipper", "amount", "timestamp", "tx_hash", "annotation"}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, row := range rows {
		record := []string{
			row.Creator,
			strconv.FormatUint(row.Sequence, 10),
			row.Address,
			row.Tipper,
			strconv.FormatUint(row.Amount, 10),
			time.Unix(row.Timestamp, 0).UTC().Format(time.RFC3339),
			row.TxHash,
			row.Annotation,
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

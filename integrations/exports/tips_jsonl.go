package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// TipsJSONL builds a JSON Lines export for the supplied tips and returns the
// serialised payload alongside a checksum.
func TipsJSONL(rows []TipRow) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, row := range rows {
		payload := map[string]interface{}{
			"creator":    row.Creator,
			"sequence":   row.Sequence,
			"tip":        row.Address,
			"tipper":     row.Tipper,
			"amount":     row.Amount,
			"timestamp":  time.Unix(row.Timestamp, 0).UTC().Format(time.RFC3339),
			"tx_hash":    row.TxHash,
			"annotation": row.Annotation,
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// RegisterCreatorPayload is carried in Transaction.Data for TxTypeRegisterCreator.
type RegisterCreatorPayload struct {
	Username string
}

// RecordTipPayload is carried in Transaction.Data for TxTypeRecordTip. Wallet is
// the declared payout destination and must match the creator record's owner.
type RecordTipPayload struct {
	Creator    [20]byte
	Wallet     [20]byte
	Amount     uint64
	Annotation []byte
}

// EncodePayload serialises a payload for Transaction.Data.
func EncodePayload(payload interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(payload)
}

// DecodeRegisterCreator parses a register-creator payload.
func DecodeRegisterCreator(data []byte) (*RegisterCreatorPayload, error) {
	payload := new(RegisterCreatorPayload)
	if err := rlp.DecodeBytes(data, payload); err != nil {
		return nil, fmt.Errorf("decode register payload: %w", err)
	}
	return payload, nil
}

// DecodeRecordTip parses a record-tip payload.
func DecodeRecordTip(data []byte) (*RecordTipPayload, error) {
	payload := new(RecordTipPayload)
	if err := rlp.DecodeBytes(data, payload); err != nil {
		return nil, fmt.Errorf("decode tip payload: %w", err)
	}
	return payload, nil
}

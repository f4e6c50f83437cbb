package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeTransfer        TxType = 0x01 // Native value transfer between wallets
	TxTypeRegisterCreator TxType = 0x10 // Creator program: register a creator record
	TxTypeRecordTip       TxType = 0x11 // Creator program: tip a registered creator
)

// DefaultChainID identifies the local network when no genesis overrides it.
const DefaultChainID uint64 = 7001

var errMissingSignature = errors.New("transaction: missing signature")

// String returns a stable label used in logs and metrics.
func (t TxType) String() string {
	switch t {
	case TxTypeTransfer:
		return "transfer"
	case TxTypeRegisterCreator:
		return "register_creator"
	case TxTypeRecordTip:
		return "record_tip"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// Transaction is a signed request naming an operation. The runtime recovers
// the signer before any program code runs.
type Transaction struct {
	ChainID uint64 `json:"chainId"`
	Type    TxType `json:"type"`
	Nonce   uint64 `json:"nonce"`
	To      []byte `json:"to,omitempty"`
	Value   uint64 `json:"value"`
	Data    []byte `json:"data,omitempty"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from []byte
}

type unsignedTx struct {
	ChainID uint64
	Type    uint8
	Nonce   uint64
	To      []byte
	Value   uint64
	Data    []byte
}

// Hash returns keccak256 over the RLP encoding of the unsigned fields.
func (tx *Transaction) Hash() ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(unsignedTx{
		ChainID: tx.ChainID,
		Type:    uint8(tx.Type),
		Nonce:   tx.Nonce,
		To:      tx.To,
		Value:   tx.Value,
		Data:    tx.Data,
	})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}

// HashArray is Hash as a fixed-size array, for record provenance fields.
func (tx *Transaction) HashArray() ([32]byte, error) {
	var out [32]byte
	hash, err := tx.Hash()
	if err != nil {
		return out, err
	}
	copy(out[:], hash)
	return out, nil
}

// Sign populates R, S and V using the supplied key.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the 20-byte signer address.
func (tx *Transaction) From() ([]byte, error) {
	if tx.from != nil {
		return tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, errMissingSignature
	}
	if !tx.V.IsUint64() || tx.V.Uint64() < 27 || tx.V.Uint64() > 28 {
		return nil, fmt.Errorf("transaction: invalid recovery id %s", tx.V)
	}
	recID := byte(tx.V.Uint64() - 27)
	if !crypto.ValidateSignatureValues(recID, tx.R, tx.S, true) {
		return nil, errors.New("transaction: signature values out of range")
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 65)
	tx.R.FillBytes(sig[:32])
	tx.S.FillBytes(sig[32:64])
	sig[64] = recID
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	tx.from = crypto.PubkeyToAddress(*pubKey).Bytes()
	return tx.from, nil
}

// FromArray is From as a fixed-size array.
func (tx *Transaction) FromArray() ([20]byte, error) {
	var out [20]byte
	from, err := tx.From()
	if err != nil {
		return out, err
	}
	copy(out[:], from)
	return out, nil
}

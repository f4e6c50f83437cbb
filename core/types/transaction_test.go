package types

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestTransactionSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	data, err := EncodePayload(RegisterCreatorPayload{Username: "alice"})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	tx := &Transaction{ChainID: DefaultChainID, Type: TxTypeRegisterCreator, Nonce: 3, Data: data}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	from, err := tx.From()
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey).Bytes()
	if !bytes.Equal(from, want) {
		t.Fatalf("recovered %x, want %x", from, want)
	}
}

func TestTransactionTamperChangesSigner(t *testing.T) {
	key, _ := crypto.GenerateKey()
	tx := &Transaction{ChainID: DefaultChainID, Type: TxTypeTransfer, Nonce: 0, To: make([]byte, 20), Value: 10}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := &Transaction{ChainID: tx.ChainID, Type: tx.Type, Nonce: tx.Nonce, To: tx.To, Value: 11, R: tx.R, S: tx.S, V: tx.V}
	from, err := tampered.From()
	if err == nil && bytes.Equal(from, crypto.PubkeyToAddress(key.PublicKey).Bytes()) {
		t.Fatalf("tampered transaction still recovers original signer")
	}
}

func TestTransactionMissingSignature(t *testing.T) {
	tx := &Transaction{Type: TxTypeTransfer}
	if _, err := tx.From(); err == nil {
		t.Fatalf("expected error for unsigned transaction")
	}
	tx.R, tx.S, tx.V = big.NewInt(1), big.NewInt(1), big.NewInt(5)
	if _, err := tx.From(); err == nil {
		t.Fatalf("expected error for invalid recovery id")
	}
}

func TestRecordTipPayloadRoundTrip(t *testing.T) {
	payload := RecordTipPayload{Amount: 500, Annotation: []byte("nice!")}
	payload.Creator[0] = 0xaa
	payload.Wallet[19] = 0xbb
	data, err := EncodePayload(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRecordTip(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Creator != payload.Creator || decoded.Wallet != payload.Wallet || decoded.Amount != 500 || string(decoded.Annotation) != "nice!" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if _, err := DecodeRegisterCreator([]byte{0xff, 0x00}); err == nil {
		t.Fatalf("expected malformed payload error")
	}
}

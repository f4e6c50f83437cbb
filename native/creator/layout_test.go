package creator

import (
	"errors"
	"testing"
)

func TestRecordSizes(t *testing.T) {
	if CreatorRecordSize != 76 {
		t.Fatalf("creator record size = %d", CreatorRecordSize)
	}
	if TipRecordSize != 362 {
		t.Fatalf("tip record size = %d", TipRecordSize)
	}
}

func TestCreatorLayout(t *testing.T) {
	record := &Creator{Owner: identity(0x11), Username: packUsername([]byte("bob")), TipCount: 7, TotalTips: 0x0102030405060708}
	encoded := EncodeCreator(record)
	if len(encoded) != CreatorRecordSize {
		t.Fatalf("encoded length = %d", len(encoded))
	}
	// total_tips is the trailing little-endian u64.
	if encoded[len(encoded)-8] != 0x08 || encoded[len(encoded)-1] != 0x01 {
		t.Fatalf("total_tips not little endian: %x", encoded[len(encoded)-8:])
	}
	decoded, err := DecodeCreator(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *decoded != *record {
		t.Fatalf("decoded = %+v", decoded)
	}

	if _, err := DecodeCreator(encoded[:CreatorRecordSize-1]); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("short record err = %v", err)
	}
	tampered := append([]byte(nil), encoded...)
	tampered[0] ^= 0xFF
	if _, err := DecodeCreator(tampered); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("bad discriminator err = %v", err)
	}
}

func TestTipLayout(t *testing.T) {
	tip := &TipRecord{
		Creator:    identity(0x01),
		Tipper:     identity(0x02),
		Amount:     500,
		Timestamp:  -1,
		Sequence:   9,
		TxHash:     [32]byte{0xAA},
		Annotation: []byte("nice!"),
	}
	encoded, err := EncodeTip(tip)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != TipRecordSize {
		t.Fatalf("encoded length = %d", len(encoded))
	}
	decoded, err := DecodeTip(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Timestamp != -1 || decoded.Sequence != 9 || string(decoded.Annotation) != "nice!" || decoded.TxHash != tip.TxHash {
		t.Fatalf("decoded = %+v", decoded)
	}
	if _, err := DecodeCreator(encoded); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("tip decoded as creator: %v", err)
	}
	corrupt := append([]byte(nil), encoded...)
	corrupt[TipRecordSize-MaxAnnotationLength-2] = 0xFF
	corrupt[TipRecordSize-MaxAnnotationLength-1] = 0xFF
	if _, err := DecodeTip(corrupt); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("oversized annotation length err = %v", err)
	}
}

func TestPackUsernameTruncates(t *testing.T) {
	long := make([]byte, UsernameCapacity+8)
	for i := range long {
		long[i] = 'a'
	}
	packed := packUsername(long)
	if string(packed[:]) != string(long[:UsernameCapacity]) {
		t.Fatalf("packUsername did not keep the leading bytes")
	}
}

func TestDerivedAddressesAreDistinct(t *testing.T) {
	owner := identity(0x42)
	creatorAddr := DeriveCreatorAddress(owner)
	if creatorAddr != DeriveCreatorAddress(owner) {
		t.Fatalf("derivation not deterministic")
	}
	if creatorAddr == DeriveCreatorAddress(identity(0x43)) {
		t.Fatalf("distinct owners share an address")
	}
	seen := map[[20]byte]bool{creatorAddr: true}
	for seq := uint64(0); seq < 64; seq++ {
		addr := DeriveTipAddress(creatorAddr, seq)
		if seen[addr] {
			t.Fatalf("collision at sequence %d", seq)
		}
		seen[addr] = true
	}
}

package creator

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	discriminatorLen = 8

	// CreatorRecordSize is the encoded width of a Creator.
	CreatorRecordSize = discriminatorLen + 20 + UsernameCapacity + 8 + 8
	// TipRecordSize is the encoded width of a TipRecord.
	TipRecordSize = discriminatorLen + 20 + 20 + 8 + 8 + 8 + 32 + 2 + MaxAnnotationLength
)

var (
	creatorDiscriminator = discriminator("Creator")
	tipDiscriminator     = discriminator("Tip")
)

func discriminator(name string) [discriminatorLen]byte {
	var out [discriminatorLen]byte
	copy(out[:], ethcrypto.Keccak256([]byte("account:"+name)))
	return out
}

// packUsername left-aligns name into the fixed field. Input beyond capacity is
// cut off; RegisterCreator rejects such input before it gets here.
func packUsername(name []byte) [UsernameCapacity]byte {
	var out [UsernameCapacity]byte
	copy(out[:], name)
	return out
}

// EncodeCreator serialises c into its fixed little-endian layout.
func EncodeCreator(c *Creator) []byte {
	buf := make([]byte, CreatorRecordSize)
	off := copy(buf, creatorDiscriminator[:])
	off += copy(buf[off:], c.Owner[:])
	off += copy(buf[off:], c.Username[:])
	binary.LittleEndian.PutUint64(buf[off:], c.TipCount)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], c.TotalTips)
	return buf
}

// DecodeCreator parses a creator record, verifying width and discriminator.
func DecodeCreator(data []byte) (*Creator, error) {
	if len(data) != CreatorRecordSize {
		return nil, fmt.Errorf("%w: creator length %d", ErrInvalidRecord, len(data))
	}
	if [discriminatorLen]byte(data[:discriminatorLen]) != creatorDiscriminator {
		return nil, fmt.Errorf("%w: creator discriminator mismatch", ErrInvalidRecord)
	}
	c := new(Creator)
	off := discriminatorLen
	off += copy(c.Owner[:], data[off:])
	off += copy(c.Username[:], data[off:])
	c.TipCount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	c.TotalTips = binary.LittleEndian.Uint64(data[off:])
	return c, nil
}

// EncodeTip serialises t into its fixed little-endian layout. The annotation
// is zero padded to MaxAnnotationLength.
func EncodeTip(t *TipRecord) ([]byte, error) {
	if len(t.Annotation) > MaxAnnotationLength {
		return nil, ErrMessageTooLong
	}
	buf := make([]byte, TipRecordSize)
	off := copy(buf, tipDiscriminator[:])
	off += copy(buf[off:], t.Creator[:])
	off += copy(buf[off:], t.Tipper[:])
	binary.LittleEndian.PutUint64(buf[off:], t.Amount)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(t.Timestamp))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], t.Sequence)
	off += 8
	off += copy(buf[off:], t.TxHash[:])
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(t.Annotation)))
	off += 2
	copy(buf[off:], t.Annotation)
	return buf, nil
}

// DecodeTip parses a tip record, verifying width and discriminator.
func DecodeTip(data []byte) (*TipRecord, error) {
	if len(data) != TipRecordSize {
		return nil, fmt.Errorf("%w: tip length %d", ErrInvalidRecord, len(data))
	}
	if [discriminatorLen]byte(data[:discriminatorLen]) != tipDiscriminator {
		return nil, fmt.Errorf("%w: tip discriminator mismatch", ErrInvalidRecord)
	}
	t := new(TipRecord)
	off := discriminatorLen
	off += copy(t.Creator[:], data[off:])
	off += copy(t.Tipper[:], data[off:])
	t.Amount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	t.Timestamp = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	t.Sequence = binary.LittleEndian.Uint64(data[off:])
	off += 8
	off += copy(t.TxHash[:], data[off:])
	n := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if n > MaxAnnotationLength {
		return nil, fmt.Errorf("%w: annotation length %d", ErrInvalidRecord, n)
	}
	t.Annotation = append([]byte(nil), data[off:off+n]...)
	return t, nil
}

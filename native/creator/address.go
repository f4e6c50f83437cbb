package creator

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	creatorSeed = []byte("creator")
	tipSeed     = []byte("tip")
)

func deriveAddress(parts ...[]byte) [20]byte {
	digest := ethcrypto.Keccak256(parts...)
	var out [20]byte
	copy(out[:], digest[len(digest)-20:])
	return out
}

// DeriveCreatorAddress returns the record address of owner's creator account.
func DeriveCreatorAddress(owner [20]byte) [20]byte {
	return deriveAddress(creatorSeed, owner[:])
}

// DeriveTipAddress returns the address of the tip stored at sequence for the
// creator record at creatorAddr.
func DeriveTipAddress(creatorAddr [20]byte, sequence uint64) [20]byte {
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], sequence)
	return deriveAddress(tipSeed, creatorAddr[:], seq[:])
}

package events

import "github.com/ethereum/go-ethereum/common/hexutil"

// setHash stores a 0x-prefixed hash attribute, skipping the zero hash.
func setHash(attrs map[string]string, key string, hash [32]byte) {
	if hash == ([32]byte{}) {
		return
	}
	attrs[key] = hexutil.Encode(hash[:])
}

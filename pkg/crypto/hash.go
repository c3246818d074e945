// Package crypto provides the cryptographic primitives the engine
// needs: SHA-256 hashing and secp256k1 ECDSA keypairs/signatures.
package crypto

import (
	"crypto/sha256"

	"github.com/trinitychain/trinitychain/pkg/types"
)

// Hash computes the SHA-256 digest of data. Every hash used for wire
// interop in this engine — transaction hashes, triangle hashes, block
// header hashes — goes through this function.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}

package block

import (
	"crypto/sha256"

	"github.com/trinitychain/trinitychain/pkg/types"
)

// ComputeMerkleRoot is a flat digest, not a tree: SHA-256 of the
// concatenation of each transaction hash, in order. Preserved exactly
// this way for interop, even though a pairwise tree would scale better.
func ComputeMerkleRoot(txHashes []types.Hash) types.Hash {
	h := sha256.New()
	for _, th := range txHashes {
		h.Write(th[:])
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

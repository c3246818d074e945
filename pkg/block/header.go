package block

import (
	"encoding/binary"

	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Header contains block metadata.
type Header struct {
	Height       uint64     `json:"height"`
	TimestampMs  uint64     `json:"timestamp_ms"`
	PreviousHash types.Hash `json:"previous_hash"`
	MerkleRoot   types.Hash `json:"merkle_root"`
	Difficulty   uint32     `json:"difficulty"`
	Nonce        uint64     `json:"nonce"`
}

// Hash computes the block header hash: SHA-256 over
// height(LE 8) || timestamp_ms(LE 8) || previous_hash(32) || merkle_root(32)
// || difficulty(LE 4) || nonce(LE 8).
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical bytes hashed for both identity and PoW.
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 8+8+32+32+4+8)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	buf = binary.LittleEndian.AppendUint64(buf, h.TimestampMs)
	buf = append(buf, h.PreviousHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, h.Difficulty)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return buf
}

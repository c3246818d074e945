// Package consensus implements proof-of-work block sealing and
// verification: target derivation, mining, and difficulty retargeting.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/geometry"
)

// PoW errors.
var (
	ErrInsufficientWork = errors.New("hash does not meet difficulty target")
	ErrZeroDifficulty   = errors.New("difficulty must be > 0")
	ErrBadDifficulty    = errors.New("block difficulty does not match expected")
)

// PoW implements proof-of-work consensus. It holds no mutable state:
// difficulty travels in each block header and is recomputed from chain
// history by ExpectedDifficulty.
type PoW struct {
	InitialDifficulty uint32
}

// NewPoW creates a new PoW engine seeded with the genesis difficulty.
func NewPoW(initialDifficulty uint32) (*PoW, error) {
	if initialDifficulty == 0 {
		return nil, ErrZeroDifficulty
	}
	return &PoW{InitialDifficulty: initialDifficulty}, nil
}

// Target returns a 32-byte value with difficulty/8 leading zero bytes,
// followed by a byte equal to 0xFF >> (difficulty % 8), then 0xFF for
// the remaining bytes.
func Target(difficulty uint32) [32]byte {
	var t [32]byte
	zeroBytes := int(difficulty / 8)
	if zeroBytes > 32 {
		zeroBytes = 32
	}
	for i := zeroBytes; i < 32; i++ {
		t[i] = 0xFF
	}
	if zeroBytes < 32 {
		t[zeroBytes] = 0xFF >> (difficulty % 8)
	}
	return t
}

// meetsTarget reports whether hash, read as a big-endian 256-bit
// integer, is <= target.
func meetsTarget(hash [32]byte, target [32]byte) bool {
	hashInt := new(big.Int).SetBytes(hash[:])
	targetInt := new(big.Int).SetBytes(target[:])
	return hashInt.Cmp(targetInt) <= 0
}

// VerifyHeader checks that the header hash meets the target implied by
// its own stated difficulty.
func (p *PoW) VerifyHeader(header *block.Header) error {
	if header.Difficulty == 0 {
		return ErrZeroDifficulty
	}
	hash := header.Hash()
	if !meetsTarget([32]byte(hash), Target(header.Difficulty)) {
		return ErrInsufficientWork
	}
	return nil
}

// Seal mines header by incrementing nonce (and, on nonce overflow,
// bumping timestamp_ms and resetting nonce) until the header hash
// meets its target. It is cancellable via ctx and checks the stop
// signal at least once per 65536 nonces.
func (p *PoW) Seal(ctx context.Context, header *block.Header) error {
	if header.Difficulty == 0 {
		return ErrZeroDifficulty
	}
	target := Target(header.Difficulty)

	header.Nonce = 0
	for {
		if header.Nonce&0xFFFF == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		hash := header.Hash()
		if meetsTarget([32]byte(hash), target) {
			return nil
		}

		if header.Nonce == math.MaxUint64 {
			header.TimestampMs++
			header.Nonce = 0
			continue
		}
		header.Nonce++
	}
}

// ExpectedDifficulty computes the difficulty a block at height should
// carry, given the previous block's difficulty and a timestamp lookup
// by height. Below the first adjustment boundary, the genesis/initial
// difficulty (or the carried-forward previous difficulty) applies.
func (p *PoW) ExpectedDifficulty(height uint64, prevDifficulty uint32, getTimestampMs func(uint64) (uint64, error)) uint32 {
	if height == 0 {
		return p.InitialDifficulty
	}
	if prevDifficulty == 0 {
		prevDifficulty = p.InitialDifficulty
	}
	if height%config.DifficultyAdjustmentInterval != 0 {
		return prevDifficulty
	}

	startTS, err := getTimestampMs(height - config.DifficultyAdjustmentInterval)
	if err != nil {
		return prevDifficulty
	}
	endTS, err := getTimestampMs(height - 1)
	if err != nil {
		return prevDifficulty
	}

	actual := int64(endTS) - int64(startTS)
	expected := int64(config.DifficultyAdjustmentInterval) * int64(config.TargetBlockTimeMillis)
	next := RetargetDifficulty(prevDifficulty, actual, expected)
	if next != prevDifficulty {
		log.Consensus.Info().
			Uint32("old", prevDifficulty).
			Uint32("new", next).
			Int64("actual_ms", actual).
			Int64("expected_ms", expected).
			Msg("difficulty retargeted")
	}
	return next
}

// VerifyDifficulty checks that header.Difficulty matches what
// ExpectedDifficulty computes from chain history.
func (p *PoW) VerifyDifficulty(header *block.Header, prevDifficulty uint32, getTimestampMs func(uint64) (uint64, error)) error {
	expected := p.ExpectedDifficulty(header.Height, prevDifficulty, getTimestampMs)
	if header.Difficulty != expected {
		return fmt.Errorf("%w: height %d has difficulty %d, want %d", ErrBadDifficulty, header.Height, header.Difficulty, expected)
	}
	return nil
}

// RetargetDifficulty computes the new difficulty after one retarget
// period. The adjustment ratio is inverted from typical PoW: difficulty
// here encodes required leading zero bits, so a *larger* actual block
// time (blocks arriving slower than the target) scales difficulty *up*
// and a smaller one scales it down, never below 1.
func RetargetDifficulty(currentDifficulty uint32, actualMs, expectedMs int64) uint32 {
	if expectedMs <= 0 {
		expectedMs = 1
	}
	if actualMs <= 0 {
		actualMs = 1
	}

	ratio := float64(actualMs) / float64(expectedMs)
	if ratio < config.DifficultyRatioMin {
		ratio = config.DifficultyRatioMin
	}
	if ratio > config.DifficultyRatioMax {
		ratio = config.DifficultyRatioMax
	}

	next := math.Round(float64(currentDifficulty) * ratio)
	if next < 1 {
		next = 1
	}
	if next > math.MaxUint32 {
		next = math.MaxUint32
	}
	return uint32(next)
}

// BlockReward computes the coinbase reward for a block at height,
// halving every HalvingInterval blocks and dropping to zero once the
// halving count reaches MaxHalvings. The genesis block's special
// 1,000,000-unit reward is handled separately by the chain, not here.
func BlockReward(height uint64) geometry.Coordinate {
	halvings := height / config.HalvingInterval
	if halvings >= config.MaxHalvings {
		return 0
	}
	return geometry.Coordinate(config.BaseBlockReward.Bits() >> halvings)
}

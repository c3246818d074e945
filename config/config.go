// Package config holds the protocol-level constants that every node
// must agree on: geometric tolerances, difficulty retargeting, block
// reward schedule, and size limits. These are not user-configurable —
// changing one is a hard fork.
package config

import (
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// GeometricTolerance is the epsilon used for area and effective-value
// conservation comparisons.
const GeometricTolerance = geometry.GeometricTolerance

// MaxRewardArea bounds a Coinbase transaction's reward_area. It must
// cover the one-time genesis reward, which is far larger than any
// ordinary mined block reward.
var MaxRewardArea = geometry.CoordinateFromInt(1_000_000)

// MaxMemoLength bounds a Transfer transaction's optional memo.
const MaxMemoLength = 256

// MaxTransactionSize bounds a transaction's serialized size, in bytes.
const MaxTransactionSize = 100_000

// MaxBlockTransactions bounds the number of transactions in a single
// block, including the mandatory leading coinbase.
const MaxBlockTransactions = 10_000

// DifficultyAdjustmentInterval is the number of blocks between
// difficulty retargets.
const DifficultyAdjustmentInterval = 10

// TargetBlockTimeMillis is the target time between blocks, in
// milliseconds.
const TargetBlockTimeMillis = 30_000

// HalvingInterval is the number of blocks between block-reward halvings.
const HalvingInterval = 210_000

// MaxHalvings is the halving count at which the block reward becomes zero.
const MaxHalvings = 64

// BaseBlockReward is the block reward before any halving is applied.
var BaseBlockReward = geometry.CoordinateFromInt(50)

// GenesisReward is the special reward_area minted by the genesis block's
// coinbase, distinct from BaseBlockReward.
var GenesisReward = geometry.CoordinateFromInt(1_000_000)

// GenesisTimestampMillis is the fixed timestamp stamped on the genesis
// block header.
const GenesisTimestampMillis uint64 = 1_672_531_200_000

// InitialDifficulty is the difficulty assigned to the genesis block.
const InitialDifficulty uint32 = 1

// DifficultyRatioMin and DifficultyRatioMax bound the per-retarget
// difficulty adjustment ratio.
const (
	DifficultyRatioMin = 0.25
	DifficultyRatioMax = 4.0
)

// PeerUnreliableThreshold is the number of consecutive sync failures
// after which a peer is excluded from best-peer selection.
const PeerUnreliableThreshold = 3

// PeerStaleSeconds is the number of seconds since a peer's last update
// after which it is considered stale.
const PeerStaleSeconds = 300

// Genesis describes the fixed, protocol-level content of height-0
// block: who receives the special genesis reward, how large it is,
// and when the block is stamped. A node constructs its genesis block
// from this descriptor rather than reading one from a peer.
type Genesis struct {
	Beneficiary types.Address
	Reward      geometry.Coordinate
	TimestampMs uint64
	Difficulty  uint32
}

// DefaultGenesis returns the genesis descriptor using the protocol's
// fixed reward, timestamp, and difficulty. Callers still need to
// supply the beneficiary address.
func DefaultGenesis(beneficiary types.Address) Genesis {
	return Genesis{
		Beneficiary: beneficiary,
		Reward:      GenesisReward,
		TimestampMs: GenesisTimestampMillis,
		Difficulty:  InitialDifficulty,
	}
}

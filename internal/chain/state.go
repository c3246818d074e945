package chain

import "github.com/trinitychain/trinitychain/pkg/types"

// State holds the chain's current tip bookkeeping: everything a miner
// or a balance query needs without walking the block list.
type State struct {
	Height         uint64
	TipHash        types.Hash
	TipTimestampMs uint64
	Difficulty     uint32
}

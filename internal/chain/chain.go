// Package chain owns the authoritative block sequence and UTXO state:
// the only code path permitted to mutate either is ApplyBlock, which
// runs the full validate-then-commit pipeline under an exclusive
// write lock.
package chain

import (
	"fmt"
	"sync"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/internal/consensus"
	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/internal/mempool"
	"github.com/trinitychain/trinitychain/internal/persist"
	"github.com/trinitychain/trinitychain/internal/utxo"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/chainerr"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Chain is the engine's authoritative view of the network: the
// ordered block list, the live triangle UTXO set, and the tip state
// needed to build and validate the next block.
type Chain struct {
	mu sync.RWMutex

	blocks []*block.Block
	utxos  *utxo.Store
	pool   *mempool.Pool
	store  persist.Store
	engine *consensus.PoW
	state  State
}

// New constructs a chain, loading prior state from store if any
// exists, otherwise initializing and persisting a fresh genesis block.
func New(store persist.Store, pool *mempool.Pool, engine *consensus.PoW, gen config.Genesis) (*Chain, error) {
	loaded, err := store.LoadBlockchain()
	if err != nil {
		return nil, err
	}

	c := &Chain{
		utxos:  utxo.New(),
		pool:   pool,
		store:  store,
		engine: engine,
	}

	if len(loaded.Blocks) == 0 {
		genesisBlock, err := CreateGenesisBlock(gen, engine)
		if err != nil {
			return nil, fmt.Errorf("create genesis block: %w", err)
		}
		if err := c.utxos.ApplyTransaction(genesisBlock.Transactions[0], 0); err != nil {
			return nil, fmt.Errorf("apply genesis coinbase: %w", err)
		}
		if err := c.commitBlock(genesisBlock, c.utxos, gen.Difficulty); err != nil {
			return nil, fmt.Errorf("commit genesis block: %w", err)
		}
		log.Chain.Info().Uint64("height", 0).Msg("initialized fresh genesis block")
		return c, nil
	}

	c.blocks = loaded.Blocks
	c.utxos = loaded.UTXOs
	tip := loaded.Blocks[len(loaded.Blocks)-1]
	c.state = State{
		Height:         tip.Header.Height,
		TipHash:        tip.Hash(),
		TipTimestampMs: tip.Header.TimestampMs,
		Difficulty:     engine.ExpectedDifficulty(tip.Header.Height+1, tip.Header.Difficulty, c.timestampAt),
	}
	log.Chain.Info().Uint64("height", c.state.Height).Int("blocks", len(loaded.Blocks)).Msg("loaded chain from persistence")
	return c, nil
}

// Height returns the current tip height.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Height
}

// TipHash returns the current tip block's hash.
func (c *Chain) TipHash() types.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.TipHash
}

// TipTimestampMs returns the current tip block's timestamp.
func (c *Chain) TipTimestampMs() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.TipTimestampMs
}

// Difficulty returns the difficulty the next block must satisfy.
func (c *Chain) Difficulty() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Difficulty
}

// GetTriangle looks up a triangle by its producing transaction hash.
func (c *Chain) GetTriangle(hash types.Hash) (geometry.Triangle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utxos.Get(hash)
}

// BalanceOf returns the sum of effective_value over every triangle
// addr currently owns.
func (c *Chain) BalanceOf(addr types.Address) geometry.Coordinate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utxos.BalanceOf(addr)
}

// GetBlock returns the block at the given height, if present.
func (c *Chain) GetBlock(height uint64) (*block.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[height], true
}

// timestampAt returns the timestamp of the block at height, used by
// the consensus engine to retarget difficulty. Callers must already
// hold at least a read lock.
func (c *Chain) timestampAt(height uint64) (uint64, error) {
	if height >= uint64(len(c.blocks)) {
		return 0, chainerr.NewInvalidBlockLinkage(fmt.Sprintf("no block at height %d", height))
	}
	return c.blocks[height].Header.TimestampMs, nil
}

// commitBlock appends blk, replaces the live UTXO state with
// newState, persists the result, and advances c.state. The caller
// must already hold the write lock (or this must be the first block,
// before any lock contention is possible).
func (c *Chain) commitBlock(blk *block.Block, newState *utxo.Store, nextDifficulty uint32) error {
	if err := c.store.SaveBlockchainState(blk, newState, nextDifficulty); err != nil {
		return err
	}

	c.blocks = append(c.blocks, blk)
	c.utxos = newState
	c.state = State{
		Height:         blk.Header.Height,
		TipHash:        blk.Hash(),
		TipTimestampMs: blk.Header.TimestampMs,
		Difficulty:     nextDifficulty,
	}

	if c.pool != nil {
		c.pool.RemoveIncluded(blk.Transactions)
	}
	return nil
}

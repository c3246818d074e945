package chain

import (
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// BlockFees sums the fee_area retained across every non-coinbase
// transaction in blk. The engine never credits this sum to any
// triangle itself — fee collection is implicit, discoverable only as
// consumed-minus-produced value — so this is exposed for an external
// coinbase-construction caller, such as the miner, to compute
// reward+fees before sealing.
func BlockFees(blk *block.Block) geometry.Coordinate {
	var total geometry.Coordinate
	for _, t := range blk.Transactions {
		total = total.Add(t.FeeArea())
	}
	return total
}

// BlocksInRange returns the blocks with height in [from, to], clamped to
// the chain's actual bounds. An empty or out-of-bounds range returns nil.
func (c *Chain) BlocksInRange(from, to uint64) []*block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 || from > to {
		return nil
	}
	if to >= uint64(len(c.blocks)) {
		to = uint64(len(c.blocks)) - 1
	}
	if from > to {
		return nil
	}
	out := make([]*block.Block, 0, to-from+1)
	for h := from; h <= to; h++ {
		out = append(out, c.blocks[h])
	}
	return out
}

// TxInChainOrMempool reports whether hash identifies a transaction
// already mined into a block, or still pending in the mempool, and
// which of the two.
func (c *Chain) TxInChainOrMempool(hash types.Hash) (inChain bool, inMempool bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, blk := range c.blocks {
		for _, t := range blk.Transactions {
			if t.Hash() == hash {
				return true, false
			}
		}
	}
	if c.pool != nil && c.pool.Has(hash) {
		return false, true
	}
	return false, false
}

// MempoolSnapshot returns every transaction currently pending inclusion.
func (c *Chain) MempoolSnapshot() []*tx.Transaction {
	if c.pool == nil {
		return nil
	}
	return c.pool.Snapshot()
}

// SubmitTransaction runs stateless validation on t and, if it passes,
// admits it to the mempool. State-aware validation happens later, when
// a block containing t is applied: a transaction accepted here may
// still be rejected at mining time if the UTXO it spends has since
// been consumed.
func (c *Chain) SubmitTransaction(t *tx.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if c.pool == nil {
		return nil
	}
	return c.pool.Add(t)
}

// SubmitBlock is the ingress entry point for externally produced
// blocks (mined locally or received from a peer): it is the public
// name for ApplyBlock, kept distinct so collaborators have a stable
// ingress method name independent of the internal pipeline's naming.
func (c *Chain) SubmitBlock(blk *block.Block) error {
	return c.ApplyBlock(blk)
}

// Package miner assembles and seals new blocks: selecting pending
// transactions from the mempool, building the coinbase, and driving
// the consensus engine to find a valid proof of work.
package miner

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/internal/consensus"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// ChainState exposes the read-only tip information a miner needs to
// build the next block's header.
type ChainState interface {
	Height() uint64
	TipHash() types.Hash
	TipTimestampMs() uint64
	Difficulty() uint32
}

// MempoolSelector selects pending transactions for block inclusion,
// ordered by fee_area descending.
type MempoolSelector interface {
	GetTransactionsByFee(limit int) []*tx.Transaction
}

// Miner produces candidate blocks against a chain and mempool. It
// depends only on consensus.Engine's Seal method, not the concrete PoW
// type, so an alternative consensus implementation can stand in
// without touching block assembly.
type Miner struct {
	chain        ChainState
	engine       consensus.Engine
	pool         MempoolSelector
	coinbaseAddr types.Address
	maxBlockTxs  int
}

// New creates a block producer.
func New(chain ChainState, engine consensus.Engine, pool MempoolSelector, coinbaseAddr types.Address) *Miner {
	return &Miner{
		chain:        chain,
		engine:       engine,
		pool:         pool,
		coinbaseAddr: coinbaseAddr,
		maxBlockTxs:  config.MaxBlockTransactions,
	}
}

// ProduceBlock builds, seals, and returns a new block using the
// current wall-clock time. The returned block is not applied to the
// chain; the caller is expected to run it through the chain's
// apply_block pipeline.
func (m *Miner) ProduceBlock(ctx context.Context) (*block.Block, error) {
	return m.produceBlock(ctx, uint64(time.Now().UnixMilli()))
}

// ProduceBlockAt is ProduceBlock with an explicit timestamp, used by
// tests that need deterministic block timing.
func (m *Miner) ProduceBlockAt(ctx context.Context, timestampMs uint64) (*block.Block, error) {
	return m.produceBlock(ctx, timestampMs)
}

func (m *Miner) produceBlock(ctx context.Context, timestampMs uint64) (*block.Block, error) {
	if parentTS := m.chain.TipTimestampMs(); timestampMs <= parentTS {
		timestampMs = parentTS + 1
	}

	height := m.chain.Height() + 1

	var selected []*tx.Transaction
	if m.pool != nil {
		selected = m.pool.GetTransactionsByFee(m.maxBlockTxs - 1)
	}
	sort.Slice(selected, func(i, j int) bool {
		hi, hj := selected[i].Hash(), selected[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	var totalFees geometry.Coordinate
	for _, t := range selected {
		totalFees = totalFees.Add(t.FeeArea())
	}

	reward := consensus.BlockReward(height).Add(totalFees)
	// Nonce carries the height so two blocks paying the same reward to
	// the same beneficiary still mint distinct coinbase hashes.
	coinbase := tx.NewCoinbase(&tx.CoinbaseTx{RewardArea: reward, Beneficiary: m.coinbaseAddr, Nonce: height})

	txs := make([]*tx.Transaction, 0, 1+len(selected))
	txs = append(txs, coinbase)
	txs = append(txs, selected...)

	txHashes := make([]types.Hash, len(txs))
	for i, t := range txs {
		txHashes[i] = t.Hash()
	}
	merkle := block.ComputeMerkleRoot(txHashes)

	header := &block.Header{
		Height:       height,
		TimestampMs:  timestampMs,
		PreviousHash: m.chain.TipHash(),
		MerkleRoot:   merkle,
		Difficulty:   m.chain.Difficulty(),
	}

	blk := block.NewBlock(header, txs)
	if err := m.engine.Seal(ctx, header); err != nil {
		return nil, fmt.Errorf("seal block: %w", err)
	}
	return blk, nil
}

package chain

import (
	"context"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/internal/consensus"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// CreateGenesisBlock builds and seals the height-0 block: a single
// coinbase transaction minting gen.Reward to gen.Beneficiary, stamped
// with gen.TimestampMs and sealed at gen.Difficulty.
func CreateGenesisBlock(gen config.Genesis, engine *consensus.PoW) (*block.Block, error) {
	coinbase := tx.NewCoinbase(&tx.CoinbaseTx{
		RewardArea:  gen.Reward,
		Beneficiary: gen.Beneficiary,
	})
	txs := []*tx.Transaction{coinbase}

	txHashes := []types.Hash{coinbase.Hash()}
	header := &block.Header{
		Height:       0,
		TimestampMs:  gen.TimestampMs,
		PreviousHash: types.Hash{},
		MerkleRoot:   block.ComputeMerkleRoot(txHashes),
		Difficulty:   gen.Difficulty,
	}

	if err := engine.Seal(context.Background(), header); err != nil {
		return nil, err
	}
	return block.NewBlock(header, txs), nil
}

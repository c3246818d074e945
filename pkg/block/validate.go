package block

import (
	"errors"
	"fmt"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Structural validation errors — these do not require chain state.
var (
	ErrNilHeader           = errors.New("block has nil header")
	ErrNoTransactions      = errors.New("block has no transactions")
	ErrBadMerkleRoot       = errors.New("merkle root mismatch")
	ErrZeroTimestamp       = errors.New("block timestamp is zero")
	ErrNoCoinbase          = errors.New("first transaction must be coinbase")
	ErrMultipleCoinbase    = errors.New("multiple coinbase transactions in block")
	ErrTooManyTxs          = errors.New("too many transactions in block")
	ErrDuplicateBlockSpend = errors.New("same triangle consumed twice in block")
)

// ValidateStructure checks block shape and internal consistency that
// does not depend on chain state: header presence, size bounds,
// coinbase position, merkle root, and within-block double-spend.
func (b *Block) ValidateStructure() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.TimestampMs == 0 {
		return ErrZeroTimestamp
	}
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if len(b.Transactions) > config.MaxBlockTransactions {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), config.MaxBlockTransactions)
	}

	if b.Transactions[0].Kind != tx.KindCoinbase {
		return ErrNoCoinbase
	}
	for i, t := range b.Transactions[1:] {
		if t.Kind == tx.KindCoinbase {
			return fmt.Errorf("tx %d: %w", i+1, ErrMultipleCoinbase)
		}
	}

	txHashes := b.TxHashes()
	expectedRoot := ComputeMerkleRoot(txHashes)
	if b.Header.MerkleRoot != expectedRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, expectedRoot)
	}

	if err := checkNoDuplicateSpends(b.Transactions); err != nil {
		return err
	}

	for i, t := range b.Transactions {
		if err := t.ValidateSize(config.MaxTransactionSize); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	return nil
}

// checkNoDuplicateSpends rejects a block where the same input triangle
// (Transfer.input_hash or Subdivision.parent_hash) is consumed more
// than once within the block.
func checkNoDuplicateSpends(txs []*tx.Transaction) error {
	seen := make(map[types.Hash]int, len(txs))
	for i, t := range txs {
		var consumed types.Hash
		switch t.Kind {
		case tx.KindTransfer:
			consumed = t.Transfer.InputHash
		case tx.KindSubdivision:
			consumed = t.Subdivision.ParentHash
		default:
			continue
		}
		if prev, ok := seen[consumed]; ok {
			return fmt.Errorf("tx %d: %w: also consumed by tx %d", i, ErrDuplicateBlockSpend, prev)
		}
		seen[consumed] = i
	}
	return nil
}

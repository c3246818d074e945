// Package persist provides atomic, durable storage for the chain: the
// ordered block list, the triangle UTXO set, and the current
// difficulty, written and read as a single all-or-nothing unit.
package persist

import (
	"github.com/trinitychain/trinitychain/internal/utxo"
	"github.com/trinitychain/trinitychain/pkg/block"
)

// LoadedChain is everything a node needs to resume from durable
// storage: the ordered block list, the reconstructed UTXO set, and the
// persisted difficulty. The SQLite store returns the last block header's
// difficulty instead of the metadata row's value when the two disagree.
type LoadedChain struct {
	Blocks     []*block.Block
	UTXOs      *utxo.Store
	Difficulty uint32
}

// Store is the persistence contract both the SQLite-backed and the
// in-memory implementations satisfy. SaveBlockchainState is called
// once per committed block; LoadBlockchain is called once at startup.
type Store interface {
	// SaveBlockchainState atomically upserts the block, replaces the
	// entire UTXO table with state's contents, and upserts the
	// difficulty metadata row. On any failure nothing is written.
	SaveBlockchainState(blk *block.Block, state *utxo.Store, difficulty uint32) error

	// LoadBlockchain reads every block ordered by height, the full UTXO
	// set, and the difficulty metadata row, rebuilding the address
	// balance index before returning. An empty store returns an empty
	// LoadedChain (Blocks == nil) rather than an error — the caller is
	// responsible for initializing genesis in that case.
	LoadBlockchain() (*LoadedChain, error)

	Close() error
}

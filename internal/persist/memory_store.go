package persist

import (
	"sync"

	"github.com/trinitychain/trinitychain/internal/utxo"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// MemoryStore is an in-process Store used by tests and by nodes that
// don't need durability across restarts. It satisfies the exact same
// all-or-nothing contract as SQLiteStore.
type MemoryStore struct {
	mu         sync.Mutex
	blocks     map[uint64]*block.Block
	utxos      map[types.Hash]geometry.Triangle
	difficulty uint32
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blocks: make(map[uint64]*block.Block),
		utxos:  make(map[types.Hash]geometry.Triangle),
	}
}

func (m *MemoryStore) SaveBlockchainState(blk *block.Block, state *utxo.Store, difficulty uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[blk.Header.Height] = blk
	m.utxos = state.Snapshot()
	m.difficulty = difficulty
	return nil
}

func (m *MemoryStore) LoadBlockchain() (*LoadedChain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.blocks) == 0 {
		return &LoadedChain{}, nil
	}

	maxHeight := uint64(0)
	for h := range m.blocks {
		if h > maxHeight {
			maxHeight = h
		}
	}
	blocks := make([]*block.Block, 0, len(m.blocks))
	for h := uint64(0); h <= maxHeight; h++ {
		if blk, ok := m.blocks[h]; ok {
			blocks = append(blocks, blk)
		}
	}

	store := utxo.New()
	store.LoadSnapshot(m.utxos)

	return &LoadedChain{Blocks: blocks, UTXOs: store, Difficulty: m.difficulty}, nil
}

func (m *MemoryStore) Close() error { return nil }

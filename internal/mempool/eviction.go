package mempool

import (
	"sort"

	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Evict removes the lowest fee_area transactions until the pool is at
// or under maxSize. Admission itself never evicts — Add rejects with
// MempoolFull at capacity — this is an operator-triggered maintenance
// pass for shrinking the pool after lowering maxSize at runtime.
func (p *Pool) Evict(maxSize int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.txs) <= maxSize {
		return 0
	}

	type ranked struct {
		hash types.Hash
		fee  geometry.Coordinate
	}
	ordered := make([]ranked, 0, len(p.txs))
	for h, t := range p.txs {
		ordered = append(ordered, ranked{hash: h, fee: t.FeeArea()})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].fee < ordered[j].fee
	})

	removed := 0
	for _, r := range ordered {
		if len(p.txs) <= maxSize {
			break
		}
		delete(p.txs, r.hash)
		removed++
	}
	if removed > 0 {
		log.Mempool.Info().Int("evicted", removed).Int("remaining", len(p.txs)).Msg("evicted low-fee transactions")
	}
	return removed
}

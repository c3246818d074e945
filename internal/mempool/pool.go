// Package mempool holds pending transactions awaiting block inclusion:
// a hash-keyed map with fee-ordered selection for block assembly and
// idempotent removal once a transaction is mined or evicted.
package mempool

import (
	"bytes"
	"sort"
	"sync"

	"github.com/trinitychain/trinitychain/pkg/chainerr"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Pool holds unconfirmed transactions keyed by hash. It has its own
// lock, independent of the chain's, since it is the hotter write path.
type Pool struct {
	mu      sync.RWMutex
	txs     map[types.Hash]*tx.Transaction
	maxSize int
	policy  *Policy
}

// New creates an empty mempool with the given capacity. A maxSize <= 0
// falls back to a sensible default.
func New(maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		txs:     make(map[types.Hash]*tx.Transaction),
		maxSize: maxSize,
		policy:  DefaultPolicy(),
	}
}

// SetPolicy overrides the acceptance policy run at insertion.
func (p *Pool) SetPolicy(policy *Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = policy
}

// Add validates t against policy and inserts it. Duplicates are
// rejected; a full pool is rejected with chainerr.MempoolFull rather
// than silently evicting — mempool admission in this engine is a hard
// capacity gate, not a fee auction.
func (p *Pool) Add(t *tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := t.Hash()
	if _, exists := p.txs[hash]; exists {
		return chainerr.NewInvalidTransaction("transaction already in mempool")
	}
	if len(p.txs) >= p.maxSize {
		return chainerr.NewMempoolFull("mempool at capacity")
	}
	if p.policy != nil {
		if err := p.policy.Check(t); err != nil {
			return chainerr.Wrap(chainerr.InvalidTransaction, "policy check failed", err)
		}
	}

	p.txs[hash] = t
	return nil
}

// Remove deletes a transaction by hash. Idempotent: removing an absent
// hash is a no-op.
func (p *Pool) Remove(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs, hash)
}

// RemoveIncluded removes every transaction in txs from the pool. Used
// by the chain after a block commits.
func (p *Pool) RemoveIncluded(txs []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range txs {
		delete(p.txs, t.Hash())
	}
}

// Has reports whether hash is present in the pool.
func (p *Pool) Has(hash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.txs[hash]
	return ok
}

// Get returns the transaction for hash, if present.
func (p *Pool) Get(hash types.Hash) (*tx.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.txs[hash]
	return t, ok
}

// Count returns the number of pending transactions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Snapshot returns every pending transaction, in no particular order.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*tx.Transaction, 0, len(p.txs))
	for _, t := range p.txs {
		out = append(out, t)
	}
	return out
}

// GetTransactionsByFee returns at most k pending transactions ordered
// by fee_area descending, ties broken by hash ascending for
// determinism across nodes selecting from the same pool.
func (p *Pool) GetTransactionsByFee(k int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	all := make([]*tx.Transaction, 0, len(p.txs))
	for _, t := range p.txs {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		fi, fj := all[i].FeeArea(), all[j].FeeArea()
		if fi != fj {
			return fi > fj
		}
		hi, hj := all[i].Hash(), all[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	if k < 0 || k > len(all) {
		k = len(all)
	}
	return all[:k]
}

package utxo

import (
	"github.com/trinitychain/trinitychain/pkg/chainerr"
	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Store is the in-memory triangle UTXO set: a map from producing
// transaction hash to the triangle it produced, plus a balance index
// that is always reconstructable from the triangle map alone.
type Store struct {
	triangles map[types.Hash]geometry.Triangle
	balances  map[types.Address]geometry.Coordinate
}

var _ Set = (*Store)(nil)

// New creates an empty UTXO store.
func New() *Store {
	return &Store{
		triangles: make(map[types.Hash]geometry.Triangle),
		balances:  make(map[types.Address]geometry.Coordinate),
	}
}

// Get returns the triangle stored under hash, if any.
func (s *Store) Get(hash types.Hash) (geometry.Triangle, bool) {
	t, ok := s.triangles[hash]
	return t, ok
}

// Put inserts or overwrites the triangle under hash and credits its
// owner's balance.
func (s *Store) Put(hash types.Hash, t geometry.Triangle) {
	s.triangles[hash] = t
	s.balances[t.Owner] = s.balances[t.Owner].Add(t.EffectiveValue())
}

// Delete removes the triangle under hash, if present, and debits its
// owner's balance. The debit is clamped at zero to guard against
// index drift rather than driving a balance negative.
func (s *Store) Delete(hash types.Hash) {
	t, ok := s.triangles[hash]
	if !ok {
		return
	}
	delete(s.triangles, hash)
	bal := s.balances[t.Owner].Sub(t.EffectiveValue())
	if bal < 0 {
		bal = 0
	}
	s.balances[t.Owner] = bal
}

// BalanceOf returns the sum of effective_value over every triangle
// owned by addr.
func (s *Store) BalanceOf(addr types.Address) geometry.Coordinate {
	return s.balances[addr]
}

// Count returns the number of triangles currently in the set.
func (s *Store) Count() int {
	return len(s.triangles)
}

// Clone returns a deep-enough copy for shadow-state block validation:
// mutating the clone never affects the original, and vice versa.
func (s *Store) Clone() *Store {
	clone := New()
	for h, t := range s.triangles {
		clone.triangles[h] = t
	}
	for a, b := range s.balances {
		clone.balances[a] = b
	}
	return clone
}

// Snapshot returns every (hash, triangle) pair currently held, for
// persistence and rebuild.
func (s *Store) Snapshot() map[types.Hash]geometry.Triangle {
	out := make(map[types.Hash]geometry.Triangle, len(s.triangles))
	for h, t := range s.triangles {
		out[h] = t
	}
	return out
}

// ClearAll removes every triangle and balance entry, used when
// rebuilding the set from persisted blocks.
func (s *Store) ClearAll() {
	s.triangles = make(map[types.Hash]geometry.Triangle)
	s.balances = make(map[types.Address]geometry.Coordinate)
}

// LoadSnapshot replaces the store's contents with a previously saved
// snapshot and rebuilds the balance index from it.
func (s *Store) LoadSnapshot(snapshot map[types.Hash]geometry.Triangle) {
	s.ClearAll()
	for h, t := range snapshot {
		s.Put(h, t)
	}
}

// ApplyTransaction mutates the store for one transaction: coinbase
// mint, transfer with optional change, or subdivision. The caller is
// expected to have already run the transaction's stateless and
// state-aware validation; ApplyTransaction re-derives the few
// preconditions it needs (ownership, conservation) and returns a
// chainerr.Error without mutating anything if they fail.
func (s *Store) ApplyTransaction(t *tx.Transaction, height uint64) error {
	switch t.Kind {
	case tx.KindCoinbase:
		return s.applyCoinbase(t)
	case tx.KindTransfer:
		return s.applyTransfer(t)
	case tx.KindSubdivision:
		return s.applySubdivision(t)
	default:
		return chainerr.NewInvalidTransaction("unknown transaction kind")
	}
}

// applyCoinbase mints a new triangle owned by the beneficiary with
// effective_value = reward_area and synthetic zero-coordinate
// vertices: a coinbase claims no geometric land, only bookkeeping
// value.
func (s *Store) applyCoinbase(t *tx.Transaction) error {
	c := t.Coinbase
	value := c.RewardArea
	triangle := geometry.Triangle{
		Owner: c.Beneficiary,
		Value: &value,
	}
	s.Put(t.Hash(), triangle)
	return nil
}

// applyTransfer removes the consumed input, credits the new owner
// with amount, and — when the remainder clears tolerance — returns a
// synthetic change triangle to the sender. fee_area is never inserted
// anywhere: it is implicitly retained by whichever coinbase policy the
// miner applies, discoverable only as consumed-minus-produced value.
func (s *Store) applyTransfer(t *tx.Transaction) error {
	tr := t.Transfer
	input, ok := s.Get(tr.InputHash)
	if !ok {
		return chainerr.NewTriangleNotFound("transfer input triangle not found")
	}
	if input.Owner != tr.Sender {
		return chainerr.NewInvalidTransaction("transfer sender does not own input triangle")
	}

	spend := tr.Amount.Add(tr.FeeArea)
	remaining := input.EffectiveValue().Sub(spend)
	if remaining < geometry.GeometricTolerance {
		return chainerr.NewInvalidTransaction("transfer leaves insufficient remaining value")
	}

	s.Delete(tr.InputHash)

	output := input.ChangeOwner(tr.NewOwner).WithEffectiveValue(tr.Amount)
	s.Put(t.Hash(), output)

	if remaining > geometry.GeometricTolerance {
		change := input.ChangeOwner(tr.Sender).WithEffectiveValue(remaining)
		s.Put(changeTriangleHash(t.Hash()), change)
	}
	return nil
}

// applySubdivision removes the parent and inserts its three children,
// each keyed by its own canonical triangle hash and credited to the
// owner.
func (s *Store) applySubdivision(t *tx.Transaction) error {
	sub := t.Subdivision
	parent, ok := s.Get(sub.ParentHash)
	if !ok {
		return chainerr.NewTriangleNotFound("subdivision parent triangle not found")
	}
	if parent.Owner != sub.OwnerAddress {
		return chainerr.NewInvalidTransaction("subdivision owner does not own parent triangle")
	}

	var childSum geometry.Coordinate
	for _, c := range sub.Children {
		childSum = childSum.Add(c.EffectiveValue())
	}
	diff := childSum.Add(sub.FeeArea).Sub(parent.EffectiveValue())
	if !diff.LessEqualTolerance(geometry.GeometricTolerance) {
		return chainerr.NewInvalidTransaction("subdivision children do not conserve parent value")
	}

	s.Delete(sub.ParentHash)
	for _, c := range sub.Children {
		s.Put(c.Hash(), c)
	}
	return nil
}

// changeTriangleHash derives a stable, collision-free key for a
// Transfer's synthetic change output: it must differ from the
// transaction's own hash (already used for the primary output) while
// remaining a pure function of it for determinism across replays.
func changeTriangleHash(txHash types.Hash) types.Hash {
	var buf [33]byte
	copy(buf[:32], txHash[:])
	buf[32] = 'c'
	return crypto.Hash(buf[:])
}

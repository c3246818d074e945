package tx

import (
	"errors"

	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// State-aware validation errors — these require UTXO set access.
var (
	ErrInputNotFound        = errors.New("input triangle not found in UTXO set")
	ErrParentNotFound       = errors.New("parent triangle not found in UTXO set")
	ErrNotOwner             = errors.New("sender does not own the input triangle")
	ErrInsufficientValue    = errors.New("input effective value insufficient for amount and fee")
	ErrSubdivisionImbalance = errors.New("subdivision children value does not conserve parent value")
)

// TriangleProvider gives read-only access to the UTXO set for
// state-aware validation: looking up the triangle a Transfer or
// Subdivision consumes.
type TriangleProvider interface {
	Get(hash types.Hash) (geometry.Triangle, bool)
}

// ValidateAgainstState performs the state-aware checks for Transfer and
// Subdivision transactions that the stateless Validate cannot: does the
// referenced triangle exist, does the caller own it, and is the value
// arithmetic consistent. Coinbase has no state-aware check beyond the
// stateless bounds already covered by Validate.
func (t *Transaction) ValidateAgainstState(utxos TriangleProvider) error {
	switch t.Kind {
	case KindCoinbase:
		return nil
	case KindTransfer:
		return t.validateTransferAgainstState(utxos)
	case KindSubdivision:
		return t.validateSubdivisionAgainstState(utxos)
	default:
		return ErrUnknownKind
	}
}

var ErrUnknownKind = errors.New("unknown transaction kind")

func (t *Transaction) validateTransferAgainstState(utxos TriangleProvider) error {
	tr := t.Transfer
	input, ok := utxos.Get(tr.InputHash)
	if !ok {
		return ErrInputNotFound
	}
	if input.Owner != tr.Sender {
		return ErrNotOwner
	}

	spend := tr.Amount.Add(tr.FeeArea)
	remaining := input.EffectiveValue().Sub(spend)
	if remaining < geometry.GeometricTolerance {
		return ErrInsufficientValue
	}
	return nil
}

func (t *Transaction) validateSubdivisionAgainstState(utxos TriangleProvider) error {
	s := t.Subdivision
	parent, ok := utxos.Get(s.ParentHash)
	if !ok {
		return ErrParentNotFound
	}
	if parent.Owner != s.OwnerAddress {
		return ErrNotOwner
	}
	if err := ValidateSubdivisionChildren(parent, s.Children); err != nil {
		return err
	}

	var childSum geometry.Coordinate
	for _, c := range s.Children {
		childSum = childSum.Add(c.EffectiveValue())
	}
	diff := childSum.Add(s.FeeArea).Sub(parent.EffectiveValue())
	if !diff.LessEqualTolerance(geometry.GeometricTolerance) {
		return ErrSubdivisionImbalance
	}
	return nil
}

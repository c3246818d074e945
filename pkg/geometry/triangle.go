package geometry

import (
	"crypto/sha256"
	"sort"

	"github.com/trinitychain/trinitychain/pkg/types"
)

// Triangle is the UTXO primitive: three fixed-point vertices, an owner,
// and an optional explicit value that overrides the geometric area as
// the triangle's effective (spendable) value.
type Triangle struct {
	A, B, C    Point
	ParentHash *types.Hash
	Owner      types.Address
	Value      *Coordinate
}

// Area computes the shoelace area |det|/2. It is always non-negative.
func (t Triangle) Area() Coordinate {
	det := t.B.X.Sub(t.A.X).Mul(t.C.Y.Sub(t.A.Y)).
		Sub(t.C.X.Sub(t.A.X).Mul(t.B.Y.Sub(t.A.Y)))
	return det.Abs().Div(CoordinateFromInt(2))
}

// EffectiveValue returns the explicit Value if set, otherwise the
// geometric Area.
func (t Triangle) EffectiveValue() Coordinate {
	if t.Value != nil {
		return *t.Value
	}
	return t.Area()
}

// IsValid reports whether the triangle is non-degenerate: its area
// strictly exceeds GeometricTolerance.
func (t Triangle) IsValid() bool {
	return t.Area() > GeometricTolerance
}

// WithEffectiveValue returns a copy of t with an explicit Value set.
func (t Triangle) WithEffectiveValue(v Coordinate) Triangle {
	t.Value = &v
	return t
}

// ChangeOwner returns a copy of t owned by addr.
func (t Triangle) ChangeOwner(addr types.Address) Triangle {
	t.Owner = addr
	return t
}

// Hash computes the canonical triangle hash used both as the UTXO key
// prefix and inside the flat Merkle digest: sort the three vertices by
// (x_bits, y_bits) on their raw fixed-point bit patterns, then SHA-256
// the vertex bytes, the owner, and the explicit value if present.
func (t Triangle) Hash() types.Hash {
	verts := []Point{t.A, t.B, t.C}
	sort.Slice(verts, func(i, j int) bool { return verts[i].before(verts[j]) })

	h := sha256.New()
	for _, v := range verts {
		h.Write(v.X.Bytes())
		h.Write(v.Y.Bytes())
	}
	h.Write(t.Owner[:])
	if t.Value != nil {
		h.Write(t.Value.Bytes())
	}

	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// SameVertices reports whether t and other have identical A, B, C
// coordinates, ignoring owner, value, and parent hash.
func (t Triangle) SameVertices(other Triangle) bool {
	return t.A == other.A && t.B == other.B && t.C == other.C
}

// Subdivide splits t into its three Sierpinski corner children: the
// central triangle (formed by the three edge midpoints) is omitted, so
// total child geometric area is 0.75 of the parent's while total child
// effective value equals the parent's effective value up to the
// truncation of the three-way split, at most 2 raw units short (modulo
// any fee the caller subtracts separately).
func (t Triangle) Subdivide() [3]Triangle {
	mAB := Midpoint(t.A, t.B)
	mBC := Midpoint(t.B, t.C)
	mCA := Midpoint(t.C, t.A)

	parentHash := t.Hash()
	childValue := t.EffectiveValue().Div(CoordinateFromInt(3))

	mk := func(a, b, c Point) Triangle {
		return Triangle{
			A: a, B: b, C: c,
			ParentHash: &parentHash,
			Owner:      t.Owner,
			Value:      &childValue,
		}
	}

	return [3]Triangle{
		mk(t.A, mAB, mCA),
		mk(mAB, t.B, mBC),
		mk(mCA, mBC, t.C),
	}
}

package geometry

// Point is a 2D coordinate pair.
type Point struct {
	X, Y Coordinate
}

// Midpoint returns the midpoint of p and q.
func Midpoint(p, q Point) Point {
	two := CoordinateFromInt(2)
	return Point{
		X: p.X.Add(q.X).Div(two),
		Y: p.Y.Add(q.Y).Div(two),
	}
}

// before reports whether p sorts strictly before q under the canonical
// lexicographic order on raw fixed-point bit patterns: (x_bits, y_bits).
func (p Point) before(q Point) bool {
	if p.X.Bits() != q.X.Bits() {
		return p.X.Bits() < q.X.Bits()
	}
	return p.Y.Bits() < q.Y.Bits()
}

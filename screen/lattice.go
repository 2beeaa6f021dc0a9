package screen

import (
	"math"
)

// LateralLattice is the two-dimensional lattice spanning the plane of a
// surface, together with the length of the stacking-axis vector. It is a
// derived view of an AtomicStructure's lattice, never independently owned.
type LateralLattice struct {
	U, V      [3]float64 // the two in-plane lattice vectors
	StackLen  float64    // length of the stacking-axis lattice vector
	StackAxis int
}

// Lateral extracts the lateral lattice of a structure.
func Lateral(s *AtomicStructure) LateralLattice {
	ax, ay := otherAxes(s.StackAxis)
	return LateralLattice{
		U:         s.LatticeRow(ax),
		V:         s.LatticeRow(ay),
		StackLen:  norm3(s.LatticeRow(s.StackAxis)),
		StackAxis: s.StackAxis,
	}
}

// Area returns the cell area spanned by U and V.
func (l LateralLattice) Area() float64 {
	return norm3(cross3(l.U, l.V))
}

// Angle returns the angle between U and V in degrees.
func (l LateralLattice) Angle() float64 {
	return angleDeg(l.U, l.V)
}

// angleDeg returns the angle between two vectors in degrees, clamping the
// cosine against rounding drift before the arccos.
func angleDeg(a, b [3]float64) float64 {
	cosv := dot3(a, b) / (norm3(a) * norm3(b))
	cosv = math.Max(-1, math.Min(1, cosv))
	return math.Acos(cosv) * 180 / math.Pi
}

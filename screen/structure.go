// Defines the AtomicStructure value type used throughout the pipeline.
// Structures are immutable once handed downstream: every operation returns a
// new instance. All lengths are in Angstrom, all energies in eV.

package screen

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CoordMode says how Coords are expressed. The convention is an explicit,
// validated field; it is never inferred from coordinate magnitudes.
type CoordMode string

const (
	Fractional CoordMode = "fractional"
	Cartesian  CoordMode = "cartesian"
)

// AtomicStructure is a periodic (or vacuum-padded) atomic arrangement.
// Rows of Lattice are the lattice vectors. StackAxis is the axis along which
// slabs are stacked and vacuum is added; the pipeline keeps it at 2 (the c
// axis) and keeps the other two lattice rows in the plane perpendicular to it.
type AtomicStructure struct {
	Elements  []string
	Coords    [][3]float64
	Mode      CoordMode
	Lattice   *mat.Dense // 3x3, rows are lattice vectors
	PBC       [3]bool
	StackAxis int
}

// NewAtomicStructure validates and constructs a structure.
func NewAtomicStructure(elements []string, coords [][3]float64, mode CoordMode, lattice *mat.Dense, pbc [3]bool, stackAxis int) (*AtomicStructure, error) {
	s := &AtomicStructure{
		Elements:  elements,
		Coords:    coords,
		Mode:      mode,
		Lattice:   lattice,
		PBC:       pbc,
		StackAxis: stackAxis,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structural invariants: element/coordinate count match,
// a declared coordinate mode, a non-degenerate 3x3 lattice, and a stacking
// axis in range.
func (s *AtomicStructure) Validate() error {
	if len(s.Elements) != len(s.Coords) {
		return fmt.Errorf("structure: %d elements but %d coordinates", len(s.Elements), len(s.Coords))
	}
	if s.Mode != Fractional && s.Mode != Cartesian {
		return fmt.Errorf("structure: unknown coordinate mode %q", s.Mode)
	}
	if s.Lattice == nil {
		return fmt.Errorf("structure: %w: nil lattice", ErrDegenerateLattice)
	}
	if r, c := s.Lattice.Dims(); r != 3 || c != 3 {
		return fmt.Errorf("structure: lattice must be 3x3, got %dx%d", r, c)
	}
	if math.Abs(mat.Det(s.Lattice)) < 1e-10 {
		return fmt.Errorf("structure: %w: zero determinant", ErrDegenerateLattice)
	}
	if s.StackAxis < 0 || s.StackAxis > 2 {
		return fmt.Errorf("structure: stacking axis %d out of range", s.StackAxis)
	}
	return nil
}

// NumAtoms returns the atom count.
func (s *AtomicStructure) NumAtoms() int { return len(s.Elements) }

// Clone returns a deep copy.
func (s *AtomicStructure) Clone() *AtomicStructure {
	elements := append([]string(nil), s.Elements...)
	coords := append([][3]float64(nil), s.Coords...)
	lattice := mat.DenseCopyOf(s.Lattice)
	return &AtomicStructure{
		Elements:  elements,
		Coords:    coords,
		Mode:      s.Mode,
		Lattice:   lattice,
		PBC:       s.PBC,
		StackAxis: s.StackAxis,
	}
}

// LatticeRow returns lattice vector i as a plain 3-vector.
func (s *AtomicStructure) LatticeRow(i int) [3]float64 {
	return [3]float64{s.Lattice.At(i, 0), s.Lattice.At(i, 1), s.Lattice.At(i, 2)}
}

// CartesianCoords returns the coordinates in Cartesian form.
func (s *AtomicStructure) CartesianCoords() [][3]float64 {
	out := make([][3]float64, len(s.Coords))
	if s.Mode == Cartesian {
		copy(out, s.Coords)
		return out
	}
	a, b, c := s.LatticeRow(0), s.LatticeRow(1), s.LatticeRow(2)
	for i, f := range s.Coords {
		for k := 0; k < 3; k++ {
			out[i][k] = f[0]*a[k] + f[1]*b[k] + f[2]*c[k]
		}
	}
	return out
}

// FractionalCoords returns the coordinates in fractional form.
func (s *AtomicStructure) FractionalCoords() ([][3]float64, error) {
	out := make([][3]float64, len(s.Coords))
	if s.Mode == Fractional {
		copy(out, s.Coords)
		return out, nil
	}
	var inv mat.Dense
	if err := inv.Inverse(s.Lattice); err != nil {
		return nil, fmt.Errorf("structure: %w: %v", ErrDegenerateLattice, err)
	}
	for i, c := range s.Coords {
		for k := 0; k < 3; k++ {
			out[i][k] = c[0]*inv.At(0, k) + c[1]*inv.At(1, k) + c[2]*inv.At(2, k)
		}
	}
	return out, nil
}

// ToFractional returns an equivalent structure in fractional mode.
func (s *AtomicStructure) ToFractional() (*AtomicStructure, error) {
	if s.Mode == Fractional {
		return s.Clone(), nil
	}
	frac, err := s.FractionalCoords()
	if err != nil {
		return nil, err
	}
	out := s.Clone()
	out.Coords = frac
	out.Mode = Fractional
	return out, nil
}

// Wrap returns a copy with all fractional coordinates wrapped into [0, 1)
// along periodic axes.
func (s *AtomicStructure) Wrap() (*AtomicStructure, error) {
	out, err := s.ToFractional()
	if err != nil {
		return nil, err
	}
	for i := range out.Coords {
		for k := 0; k < 3; k++ {
			if !out.PBC[k] {
				continue
			}
			out.Coords[i][k] = wrapFrac(out.Coords[i][k])
		}
	}
	return out, nil
}

// Area returns the in-plane cell area (norm of the cross product of the two
// non-stacking lattice vectors).
func (s *AtomicStructure) Area() float64 {
	rows := make([][3]float64, 0, 2)
	for i := 0; i < 3; i++ {
		if i != s.StackAxis {
			rows = append(rows, s.LatticeRow(i))
		}
	}
	return norm3(cross3(rows[0], rows[1]))
}

// Supercell applies an integer in-plane supercell transform, leaving the
// stacking axis unchanged. The returned structure holds det(t) copies of the
// original cell contents.
func (s *AtomicStructure) Supercell(t SupercellTransform) (*AtomicStructure, error) {
	det := t.Det()
	if det < 1 {
		return nil, fmt.Errorf("supercell: transform determinant %d < 1", det)
	}
	src, err := s.ToFractional()
	if err != nil {
		return nil, err
	}
	ax, ay := otherAxes(s.StackAxis)
	a := s.LatticeRow(ax)
	b := s.LatticeRow(ay)

	lattice := mat.DenseCopyOf(s.Lattice)
	for k := 0; k < 3; k++ {
		lattice.Set(ax, k, float64(t[0][0])*a[k]+float64(t[0][1])*b[k])
		lattice.Set(ay, k, float64(t[1][0])*a[k]+float64(t[1][1])*b[k])
	}

	// Map old fractional coordinates into the new cell. The transform in
	// fractional space is the inverse of t; translated images of each atom
	// are scanned over the bounding box of the new cell in old-cell units.
	inv, err := t.invFloat()
	if err != nil {
		return nil, err
	}
	lo1, hi1, lo2, hi2 := t.boundingRange()

	var elements []string
	var coords [][3]float64
	seen := make(map[string]bool)
	for i, f := range src.Coords {
		for n1 := lo1; n1 <= hi1; n1++ {
			for n2 := lo2; n2 <= hi2; n2++ {
				u := f[ax] + float64(n1)
				v := f[ay] + float64(n2)
				nu := wrapFrac(u*inv[0][0] + v*inv[1][0])
				nv := wrapFrac(u*inv[0][1] + v*inv[1][1])
				var nf [3]float64
				nf[ax], nf[ay] = nu, nv
				nf[s.StackAxis] = f[s.StackAxis]
				key := fmt.Sprintf("%s:%.5f:%.5f:%.5f", src.Elements[i], nf[0], nf[1], nf[2])
				if seen[key] {
					continue
				}
				seen[key] = true
				elements = append(elements, src.Elements[i])
				coords = append(coords, nf)
			}
		}
	}
	if len(elements) != det*s.NumAtoms() {
		return nil, fmt.Errorf("supercell: expected %d atoms, mapped %d", det*s.NumAtoms(), len(elements))
	}
	return &AtomicStructure{
		Elements:  elements,
		Coords:    coords,
		Mode:      Fractional,
		Lattice:   lattice,
		PBC:       s.PBC,
		StackAxis: s.StackAxis,
	}, nil
}

// MinimumImageDistance returns the shortest distance between two Cartesian
// points under the structure's periodic boundary conditions.
func (s *AtomicStructure) MinimumImageDistance(p, q [3]float64) float64 {
	shifts := [3]int{0, 0, 0}
	for k := 0; k < 3; k++ {
		if s.PBC[k] {
			shifts[k] = 1
		}
	}
	best := math.Inf(1)
	for n0 := -shifts[0]; n0 <= shifts[0]; n0++ {
		for n1 := -shifts[1]; n1 <= shifts[1]; n1++ {
			for n2 := -shifts[2]; n2 <= shifts[2]; n2++ {
				img := q
				for k := 0; k < 3; k++ {
					img[k] += float64(n0)*s.Lattice.At(0, k) +
						float64(n1)*s.Lattice.At(1, k) +
						float64(n2)*s.Lattice.At(2, k)
				}
				if d := norm3(sub3(p, img)); d < best {
					best = d
				}
			}
		}
	}
	return best
}

// String returns a short human-readable summary.
func (s *AtomicStructure) String() string {
	return fmt.Sprintf("AtomicStructure(atoms=%d, mode=%s, area=%.3f)", s.NumAtoms(), s.Mode, s.Area())
}

// wrapFrac wraps a fractional coordinate into [0, 1), with a small tolerance
// so that values within rounding error of 1 land on 0.
func wrapFrac(x float64) float64 {
	const eps = 1e-8
	x -= math.Floor(x)
	if x > 1-eps {
		x = 0
	}
	if math.Abs(x) < eps {
		x = 0
	}
	return x
}

func otherAxes(stack int) (int, int) {
	switch stack {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

// Plain 3-vector helpers.

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func norm3(a [3]float64) float64 { return math.Sqrt(dot3(a, a)) }

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// cubic returns a simple-cubic test structure with lattice constant a.
func cubic(t *testing.T, a float64, elements []string, coords [][3]float64) *AtomicStructure {
	t.Helper()
	s, err := NewAtomicStructure(elements, coords, Fractional,
		mat.NewDense(3, 3, []float64{a, 0, 0, 0, a, 0, 0, 0, a}),
		[3]bool{true, true, true}, 2)
	assert.NoError(t, err)
	return s
}

func TestNewAtomicStructure_CountMismatch_Errors(t *testing.T) {
	_, err := NewAtomicStructure([]string{"Si", "Si"}, [][3]float64{{0, 0, 0}}, Fractional,
		mat.NewDense(3, 3, []float64{3, 0, 0, 0, 3, 0, 0, 0, 3}),
		[3]bool{true, true, true}, 2)
	assert.Error(t, err)
}

func TestNewAtomicStructure_UnknownMode_Errors(t *testing.T) {
	_, err := NewAtomicStructure([]string{"Si"}, [][3]float64{{0, 0, 0}}, CoordMode("direct"),
		mat.NewDense(3, 3, []float64{3, 0, 0, 0, 3, 0, 0, 0, 3}),
		[3]bool{true, true, true}, 2)
	assert.Error(t, err)
}

func TestNewAtomicStructure_SingularLattice_Errors(t *testing.T) {
	_, err := NewAtomicStructure([]string{"Si"}, [][3]float64{{0, 0, 0}}, Fractional,
		mat.NewDense(3, 3, []float64{3, 0, 0, 3, 0, 0, 0, 0, 3}),
		[3]bool{true, true, true}, 2)
	assert.ErrorIs(t, err, ErrDegenerateLattice)
}

func TestNewAtomicStructure_StackAxisOutOfRange_Errors(t *testing.T) {
	_, err := NewAtomicStructure([]string{"Si"}, [][3]float64{{0, 0, 0}}, Fractional,
		mat.NewDense(3, 3, []float64{3, 0, 0, 0, 3, 0, 0, 0, 3}),
		[3]bool{true, true, true}, 3)
	assert.Error(t, err)
}

func TestCartesianCoords_FractionalInput_Converts(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0.5, 0.5, 0.5}})
	carts := s.CartesianCoords()
	assert.InDelta(t, 1.5, carts[0][0], 1e-12)
	assert.InDelta(t, 1.5, carts[0][1], 1e-12)
	assert.InDelta(t, 1.5, carts[0][2], 1e-12)
}

func TestFractionalCoords_CartesianRoundTrip_Identity(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0.25, 0.5, 0.75}})
	carts := s.CartesianCoords()
	back, err := NewAtomicStructure(s.Elements, carts, Cartesian, s.Lattice, s.PBC, s.StackAxis)
	assert.NoError(t, err)
	frac, err := back.FractionalCoords()
	assert.NoError(t, err)
	for k := 0; k < 3; k++ {
		assert.InDelta(t, s.Coords[0][k], frac[0][k], 1e-12)
	}
}

func TestWrap_OutOfCellCoords_LandInUnitInterval(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{1.25, -0.25, 0.5}})
	wrapped, err := s.Wrap()
	assert.NoError(t, err)
	assert.InDelta(t, 0.25, wrapped.Coords[0][0], 1e-12)
	assert.InDelta(t, 0.75, wrapped.Coords[0][1], 1e-12)
	assert.InDelta(t, 0.50, wrapped.Coords[0][2], 1e-12)
}

func TestWrap_NonPeriodicAxis_LeftAlone(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0.5, 0.5, 1.25}})
	s.PBC = [3]bool{true, true, false}
	wrapped, err := s.Wrap()
	assert.NoError(t, err)
	assert.InDelta(t, 1.25, wrapped.Coords[0][2], 1e-12)
}

func TestClone_MutatingCopy_LeavesOriginal(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0, 0, 0}})
	c := s.Clone()
	c.Coords[0][0] = 0.5
	c.Elements[0] = "Ge"
	c.Lattice.Set(0, 0, 99)
	assert.Equal(t, 0.0, s.Coords[0][0])
	assert.Equal(t, "Si", s.Elements[0])
	assert.Equal(t, 3.0, s.Lattice.At(0, 0))
}

func TestArea_CubicCell_InPlaneProduct(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0, 0, 0}})
	assert.InDelta(t, 9.0, s.Area(), 1e-12)
}

func TestSupercell_DetTwo_DoublesAtomsAndArea(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0, 0, 0}})
	sc, err := s.Supercell(SupercellTransform{{2, 0}, {0, 1}})
	assert.NoError(t, err)
	assert.Equal(t, 2, sc.NumAtoms())
	assert.InDelta(t, 18.0, sc.Area(), 1e-9)
}

func TestSupercell_ShearedTransform_PreservesAtomCount(t *testing.T) {
	s := cubic(t, 3, []string{"Ga", "As"}, [][3]float64{{0, 0, 0}, {0.5, 0.5, 0.5}})
	tf := SupercellTransform{{2, 1}, {0, 3}}
	sc, err := s.Supercell(tf)
	assert.NoError(t, err)
	assert.Equal(t, tf.Det()*s.NumAtoms(), sc.NumAtoms())
}

func TestSupercell_NonPositiveDeterminant_Errors(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0, 0, 0}})
	_, err := s.Supercell(SupercellTransform{{0, 1}, {1, 0}})
	assert.Error(t, err)
}

func TestSupercell_StackAxisCoordinate_Unchanged(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0.1, 0.2, 0.3}})
	sc, err := s.Supercell(SupercellTransform{{2, 0}, {0, 2}})
	assert.NoError(t, err)
	for _, f := range sc.Coords {
		assert.InDelta(t, 0.3, f[2], 1e-9)
	}
}

func TestMinimumImageDistance_AcrossBoundary_TakesImage(t *testing.T) {
	s := cubic(t, 3, []string{"Si", "Si"}, [][3]float64{{0, 0, 0}, {0, 0, 0}})
	d := s.MinimumImageDistance([3]float64{0.5, 0, 0}, [3]float64{2.9, 0, 0})
	assert.InDelta(t, 0.6, d, 1e-9)
}

func TestMinimumImageDistance_NoPBC_DirectOnly(t *testing.T) {
	s := cubic(t, 3, []string{"Si", "Si"}, [][3]float64{{0, 0, 0}, {0, 0, 0}})
	s.PBC = [3]bool{false, false, false}
	d := s.MinimumImageDistance([3]float64{0.5, 0, 0}, [3]float64{2.9, 0, 0})
	assert.InDelta(t, 2.4, d, 1e-9)
}

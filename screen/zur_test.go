package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func squareLattice(a float64) LateralLattice {
	return LateralLattice{
		U:         [3]float64{a, 0, 0},
		V:         [3]float64{0, a, 0},
		StackLen:  10,
		StackAxis: 2,
	}
}

func TestSupercellTransform_Det_AreaMultiple(t *testing.T) {
	assert.Equal(t, 1, Identity.Det())
	assert.Equal(t, 6, SupercellTransform{{2, 1}, {0, 3}}.Det())
	assert.Equal(t, -1, SupercellTransform{{0, 1}, {1, 0}}.Det())
}

func TestSupercellTransform_Apply_ScalesVectors(t *testing.T) {
	l := squareLattice(3)
	v := SupercellTransform{{2, 0}, {1, 1}}.Apply(l)
	assert.InDelta(t, 6.0, v[0][0], 1e-12)
	assert.InDelta(t, 3.0, v[1][0], 1e-12)
	assert.InDelta(t, 3.0, v[1][1], 1e-12)
}

func TestEnumerateTransforms_HNF_CountAndDets(t *testing.T) {
	// det n contributes sigma(n) transforms: 1, 3, 4, 7 for n = 1..4
	counts := map[int]int{}
	for _, tf := range enumerateTransforms(4) {
		assert.GreaterOrEqual(t, tf.Det(), 1)
		assert.Equal(t, 0, tf[1][0]) // Hermite normal form, lower-left zero
		counts[tf.Det()]++
	}
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 3, counts[2])
	assert.Equal(t, 4, counts[3])
	assert.Equal(t, 7, counts[4])
}

func TestMatchLattices_IdenticalLattices_ZeroMismatchFirst(t *testing.T) {
	l := squareLattice(3)
	matches := MatchLattices(l, l, MatchConfig{MaxAreaMultiple: 2, LengthTol: 0.01, AngleTol: 0.5})
	assert.NotEmpty(t, matches)
	best := matches[0]
	assert.InDelta(t, 0.0, best.MismatchU, 1e-12)
	assert.InDelta(t, 0.0, best.MismatchV, 1e-12)
	assert.InDelta(t, 0.0, best.MismatchAngle, 1e-9)
	assert.InDelta(t, 9.0, best.Area, 1e-9)
	assert.Equal(t, Identity, best.FilmTransform)
	assert.Equal(t, Identity, best.SubsTransform)
}

func TestMatchLattices_TwoPercentStrain_WithinEightPercentTol(t *testing.T) {
	film := squareLattice(3.06)
	subs := squareLattice(3.00)
	matches := MatchLattices(film, subs, MatchConfig{MaxAreaMultiple: 1, LengthTol: 0.08, AngleTol: 1})
	assert.Len(t, matches, 1)
	assert.InDelta(t, 0.02, matches[0].MismatchU, 1e-9)
	assert.InDelta(t, 0.02, matches[0].MismatchV, 1e-9)
	assert.InDelta(t, 0.02, matches[0].MaxLengthMismatch(), 1e-9)
}

func TestReduceVectors_ObtuseBasis_FlipsAndShortens(t *testing.T) {
	// (3,3,0), (0,6,0) spans the same lattice as the reduced (3,3,0), (-3,3,0)
	u, v := reduceVectors([3]float64{3, 3, 0}, [3]float64{0, 6, 0})
	assert.InDelta(t, norm3([3]float64{3, 3, 0}), norm3(u), 1e-9)
	assert.InDelta(t, norm3([3]float64{3, 3, 0}), norm3(v), 1e-9)
	assert.GreaterOrEqual(t, dot3(u, v), 0.0)
	// area is invariant under the reduction
	assert.InDelta(t, 18.0, norm3(cross3(u, v)), 1e-9)
}

func TestReduceVectors_AlreadyReduced_Unchanged(t *testing.T) {
	u, v := reduceVectors([3]float64{3, 0, 0}, [3]float64{0, 3, 0})
	assert.Equal(t, [3]float64{3, 0, 0}, u)
	assert.Equal(t, [3]float64{0, 3, 0}, v)
}

func TestMatchLattices_Rotated45Supercell_ExactCoincidence(t *testing.T) {
	// a square lattice of constant a*sqrt(2) rotated 45 degrees is exactly
	// commensurate with a square substrate of constant a via a det-2
	// substrate supercell; the match only appears once candidate bases are
	// reduced, since no raw HNF substrate basis equals the film's vectors
	film := LateralLattice{
		U:         [3]float64{3, 3, 0},
		V:         [3]float64{-3, 3, 0},
		StackLen:  10,
		StackAxis: 2,
	}
	subs := squareLattice(3)

	matches := MatchLattices(film, subs, MatchConfig{MaxAreaMultiple: 4, LengthTol: 0.01, AngleTol: 0.5})
	assert.NotEmpty(t, matches)

	best := matches[0]
	assert.InDelta(t, 0.0, best.Mismatch(), 1e-9)
	assert.InDelta(t, 18.0, best.Area, 1e-9)
	assert.Equal(t, 1, best.FilmTransform.Det())
	assert.Equal(t, 2, best.SubsTransform.Det())
}

func TestMatchLattices_OutsideTolerance_Empty(t *testing.T) {
	film := squareLattice(3.6)
	subs := squareLattice(3.0)
	matches := MatchLattices(film, subs, MatchConfig{MaxAreaMultiple: 1, LengthTol: 0.08, AngleTol: 1})
	assert.Empty(t, matches)
}

func TestMatchLattices_SortedByAreaThenMismatch(t *testing.T) {
	l := squareLattice(3)
	matches := MatchLattices(l, l, MatchConfig{MaxAreaMultiple: 4, LengthTol: 0.05, AngleTol: 1})
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Area == matches[i].Area {
			assert.LessOrEqual(t, matches[i-1].Mismatch(), matches[i].Mismatch())
		} else {
			assert.Less(t, matches[i-1].Area, matches[i].Area)
		}
	}
}

func TestMatchLattices_AreaCeiling_Enforced(t *testing.T) {
	l := squareLattice(3)
	matches := MatchLattices(l, l, MatchConfig{MaxAreaMultiple: 6, MaxArea: 20, LengthTol: 0.05, AngleTol: 1})
	assert.NotEmpty(t, matches)
	for _, m := range matches {
		assert.LessOrEqual(t, m.Area, 20.0)
	}
}

func TestMatchLattices_InvalidAreaMultiple_Nil(t *testing.T) {
	l := squareLattice(3)
	assert.Nil(t, MatchLattices(l, l, MatchConfig{MaxAreaMultiple: 0, LengthTol: 0.05, AngleTol: 1}))
}

func TestLateral_ExtractsInPlaneRows(t *testing.T) {
	s := cubic(t, 3, []string{"Si"}, [][3]float64{{0, 0, 0}})
	l := Lateral(s)
	assert.Equal(t, [3]float64{3, 0, 0}, l.U)
	assert.Equal(t, [3]float64{0, 3, 0}, l.V)
	assert.InDelta(t, 3.0, l.StackLen, 1e-12)
	assert.InDelta(t, 9.0, l.Area(), 1e-12)
	assert.InDelta(t, 90.0, l.Angle(), 1e-9)
}

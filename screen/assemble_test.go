package screen

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testTermination wraps a single-atom simple-cubic slab as a termination.
func testTermination(t *testing.T, el string, a float64, index int) Termination {
	t.Helper()
	slab := cubic(t, a, []string{el}, [][3]float64{{0, 0, 0}})
	return Termination{Structure: slab, Index: index, TopFace: el + "1", BottomFace: el + "1"}
}

func identityMatch(a float64) LatticeMatch {
	return LatticeMatch{
		FilmTransform: Identity,
		SubsTransform: Identity,
		Area:          a * a,
	}
}

func TestDisplacementGrid_ZeroInterval_SingleRegistry(t *testing.T) {
	grid := DisplacementGrid(0)
	assert.Equal(t, [][2]float64{{0, 0}}, grid)
}

func TestDisplacementGrid_HalfInterval_FourDistinctPoints(t *testing.T) {
	grid := DisplacementGrid(0.5)
	assert.Len(t, grid, 4)
	seen := map[[2]float64]bool{}
	for _, d := range grid {
		// distinct modulo one in-plane cell
		key := [2]float64{math.Mod(d[0]+1, 1), math.Mod(d[1]+1, 1)}
		assert.False(t, seen[key], "duplicate registry %v", d)
		seen[key] = true
		assert.GreaterOrEqual(t, d[0], -0.5)
		assert.LessOrEqual(t, d[0], 0.5)
	}
}

func TestDisplacementGrid_TenthInterval_SpansCell(t *testing.T) {
	grid := DisplacementGrid(0.1)
	assert.Len(t, grid, 100)
}

func TestAssemble_SingleRegistry_StackGeometry(t *testing.T) {
	film := testTermination(t, "Si", 3, 0)
	subs := testTermination(t, "Ag", 3, 0)
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, ApplyStrain: true}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, Provenance{FilmID: "f", SubsID: "s"})
	assert.NoError(t, err)
	assert.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, 2, c.Structure.NumAtoms())
	// film block first, substrate after
	assert.Equal(t, "Si", c.Structure.Elements[0])
	assert.Equal(t, "Ag", c.Structure.Elements[1])
	// single-atom slabs have zero extent: c = 2*vacuum + separation
	assert.InDelta(t, 2*2.5+2.5, c.Structure.LatticeRow(2)[2], 1e-9)

	// film sits separation above the substrate
	carts := c.Structure.CartesianCoords()
	assert.InDelta(t, 2.5, carts[1][2], 1e-9)
	assert.InDelta(t, 5.0, carts[0][2], 1e-9)
}

func TestAssemble_DisplacementGrid_OneCandidatePerRegistry(t *testing.T) {
	film := testTermination(t, "Si", 3, 0)
	subs := testTermination(t, "Ag", 3, 0)
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, DispIntvl: 0.5, ApplyStrain: true}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, Provenance{})
	assert.NoError(t, err)
	assert.Len(t, cands, 4)

	seen := map[[2]float64]bool{}
	for _, c := range cands {
		assert.False(t, seen[c.Provenance.Displacement])
		seen[c.Provenance.Displacement] = true
	}
}

func TestAssemble_SharedSlabReferences_AcrossRegistries(t *testing.T) {
	film := testTermination(t, "Si", 3, 0)
	subs := testTermination(t, "Ag", 3, 0)
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, DispIntvl: 0.5, ApplyStrain: true}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, Provenance{})
	assert.NoError(t, err)
	for _, c := range cands[1:] {
		assert.Same(t, cands[0].FilmSlab, c.FilmSlab)
		assert.Same(t, cands[0].SubsSlab, c.SubsSlab)
	}
}

func TestAssemble_StrainedFilm_AdoptsSubstrateLateralCell(t *testing.T) {
	film := testTermination(t, "Si", 3.12, 0)
	subs := testTermination(t, "Ag", 3.00, 0)
	match := LatticeMatch{
		FilmTransform: Identity,
		SubsTransform: Identity,
		MismatchU:     0.04,
		MismatchV:     0.04,
	}
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, ApplyStrain: true}

	cands, err := Assemble(film, subs, match, cfg, Provenance{})
	assert.NoError(t, err)
	assert.Len(t, cands, 1)

	c := cands[0]
	assert.InDelta(t, 0.04, c.Provenance.FilmStrain, 1e-12)
	// interface and strained film slab both carry the substrate lateral cell
	assert.InDelta(t, 9.0, c.Structure.Area(), 1e-9)
	assert.InDelta(t, 9.0, c.FilmSlab.Area(), 1e-9)
	// the unstrained input termination is untouched
	assert.InDelta(t, 3.12*3.12, film.Structure.Area(), 1e-9)
}

func TestAssemble_NoStrain_FilmKeepsOwnCell(t *testing.T) {
	film := testTermination(t, "Si", 3.12, 0)
	subs := testTermination(t, "Ag", 3.00, 0)
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, ApplyStrain: false}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, Provenance{})
	assert.NoError(t, err)
	assert.InDelta(t, 3.12*3.12, cands[0].FilmSlab.Area(), 1e-9)
}

func TestAssemble_ContactFloor_FiltersRegistries(t *testing.T) {
	film := testTermination(t, "Si", 3, 0)
	subs := testTermination(t, "Ag", 3, 0)
	// the separation itself is the closest contact; a floor above it rejects
	// every registry without erroring
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, MinDistance: 4.0, ApplyStrain: true}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, Provenance{})
	assert.NoError(t, err)
	assert.Empty(t, cands)
}

func TestAssemble_ProvenanceAndName_Recorded(t *testing.T) {
	film := testTermination(t, "Si", 3, 2)
	subs := testTermination(t, "Ag", 3, 1)
	cfg := AssemblyConfig{Separation: 2.5, Vacuum: 2.5, ApplyStrain: true}
	meta := Provenance{
		FilmID:        "JVASP-816",
		SubsID:        "JVASP-867",
		FilmMiller:    [3]int{0, 0, 1},
		SubsMiller:    [3]int{1, 1, 0},
		FilmThickness: 8,
		SubsThickness: 8,
	}

	cands, err := Assemble(film, subs, identityMatch(3), cfg, meta)
	assert.NoError(t, err)
	p := cands[0].Provenance
	assert.Equal(t, 2, p.FilmTermination)
	assert.Equal(t, 1, p.SubsTermination)
	assert.Equal(t, 2.5, p.Separation)

	assert.True(t, strings.HasPrefix(p.Name, "Interface-JVASP-867_JVASP-816_film_miller_0_0_1_sub_miller_1_1_0"), p.Name)
	assert.Contains(t, p.Name, "seperation_2.5")
	assert.Contains(t, p.Name, "disp_0_0")
}

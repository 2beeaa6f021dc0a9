// Interface assembly: apply the matched supercell transforms, strain the film
// onto the substrate lateral lattice, stack with a separation gap, and
// enumerate lateral registries over one in-plane cell.

package screen

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Provenance records where an interface candidate came from, with enough
// detail for downstream artifact lookup.
type Provenance struct {
	FilmID          string
	SubsID          string
	FilmMiller      [3]int
	SubsMiller      [3]int
	FilmTermination int
	SubsTermination int
	FilmThickness   float64
	SubsThickness   float64
	Separation      float64
	Displacement    [2]float64 // fractional in-plane shift of the film
	FilmStrain      float64    // recorded lateral strain magnitude
	Name            string
}

// InterfaceCandidate is a fully assembled interface structure plus its
// provenance. Candidates are created by Assemble, scored by Screen, and
// either discarded or promoted to selected. FilmSlab and SubsSlab are the
// isolated supercell slabs this interface was stacked from; candidates from
// the same Assemble call share them, which is what lets the orchestrator
// evaluate each slab once.
type InterfaceCandidate struct {
	Structure  *AtomicStructure
	FilmSlab   *AtomicStructure
	SubsSlab   *AtomicStructure
	Provenance Provenance
}

// nFilmAtoms atoms at the head of the coordinate list belong to the film;
// the assembler relies on this split to displace only the film.
type assembledStack struct {
	structure  *AtomicStructure
	filmSlab   *AtomicStructure
	subsSlab   *AtomicStructure
	nFilmAtoms int
}

// DisplacementGrid returns the lateral registry grid for a fractional
// interval d: the points -1/2+d, -1/2+2d, ... spanning exactly one in-plane
// cell with no duplicates modulo the lattice. d <= 0 yields the single zero
// registry.
func DisplacementGrid(d float64) [][2]float64 {
	if d <= 0 {
		return [][2]float64{{0, 0}}
	}
	n := int(math.Floor(1/d + 1e-9))
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = -0.5 + d*float64(i+1)
	}
	out := make([][2]float64, 0, n*n)
	for _, x := range vals {
		for _, y := range vals {
			out = append(out, [2]float64{x, y})
		}
	}
	return out
}

// Assemble builds one InterfaceCandidate per lateral registry from a film and
// substrate termination and a chosen lattice match. The substrate lateral
// lattice is authoritative; the film is strained onto it when
// cfg.ApplyStrain is set and the strain magnitude is recorded in provenance.
// Candidates whose minimum cross-interface distance falls below
// cfg.MinDistance are skipped, not errored.
func Assemble(film, subs Termination, match LatticeMatch, cfg AssemblyConfig, meta Provenance) ([]InterfaceCandidate, error) {
	stack, err := buildStack(film, subs, match, cfg)
	if err != nil {
		return nil, err
	}

	grid := DisplacementGrid(cfg.DispIntvl)
	out := make([]InterfaceCandidate, 0, len(grid))
	for _, disp := range grid {
		cand, err := displaceFilm(stack, disp)
		if err != nil {
			return nil, err
		}
		if cfg.MinDistance > 0 {
			if d := interfaceMinDistance(cand, stack.nFilmAtoms); d < cfg.MinDistance {
				logrus.Debugf("assemble: dropping registry (%.3f, %.3f), contact %.3f A below floor %.3f A",
					disp[0], disp[1], d, cfg.MinDistance)
				continue
			}
		}
		prov := meta
		prov.FilmTermination = film.Index
		prov.SubsTermination = subs.Index
		prov.Separation = cfg.Separation
		prov.Displacement = disp
		prov.FilmStrain = match.MaxLengthMismatch()
		prov.Name = candidateName(prov)
		out = append(out, InterfaceCandidate{
			Structure:  cand,
			FilmSlab:   stack.filmSlab,
			SubsSlab:   stack.subsSlab,
			Provenance: prov,
		})
	}
	return out, nil
}

// buildStack makes the displaced-registry template: substrate below, film
// above, separated by cfg.Separation, vacuum on both sides.
func buildStack(film, subs Termination, match LatticeMatch, cfg AssemblyConfig) (*assembledStack, error) {
	filmSC, err := film.Structure.Supercell(match.FilmTransform)
	if err != nil {
		return nil, fmt.Errorf("assemble film supercell: %w", err)
	}
	subsSC, err := subs.Structure.Supercell(match.SubsTransform)
	if err != nil {
		return nil, fmt.Errorf("assemble substrate supercell: %w", err)
	}

	subsA := subsSC.LatticeRow(0)
	subsB := subsSC.LatticeRow(1)

	// Film Cartesian coordinates, laterally strained onto the substrate
	// superlattice when requested: fractional in-plane coordinates are
	// preserved while the in-plane basis is swapped.
	filmFrac, err := filmSC.FractionalCoords()
	if err != nil {
		return nil, err
	}
	filmA, filmB := filmSC.LatticeRow(0), filmSC.LatticeRow(1)
	if cfg.ApplyStrain {
		filmA, filmB = subsA, subsB
	}
	filmC := filmSC.LatticeRow(2)
	filmCart := make([][3]float64, len(filmFrac))
	for i, f := range filmFrac {
		for k := 0; k < 3; k++ {
			filmCart[i][k] = f[0]*filmA[k] + f[1]*filmB[k] + f[2]*filmC[k]
		}
	}
	subsCart := subsSC.CartesianCoords()

	filmLo, filmHi := zExtent(filmCart)
	subsLo, subsHi := zExtent(subsCart)
	filmThickness := filmHi - filmLo
	subsThickness := subsHi - subsLo
	totalC := 2*cfg.Vacuum + subsThickness + cfg.Separation + filmThickness

	// Film first, then substrate: the film block's position in the element
	// list is what displaceFilm shifts.
	elements := make([]string, 0, len(filmCart)+len(subsCart))
	coords := make([][3]float64, 0, len(filmCart)+len(subsCart))
	filmShift := cfg.Vacuum + subsThickness + cfg.Separation - filmLo
	for i, p := range filmCart {
		p[2] += filmShift
		elements = append(elements, filmSC.Elements[i])
		coords = append(coords, p)
	}
	subsShift := cfg.Vacuum - subsLo
	for i, p := range subsCart {
		p[2] += subsShift
		elements = append(elements, subsSC.Elements[i])
		coords = append(coords, p)
	}

	lattice := mat.NewDense(3, 3, []float64{
		subsA[0], subsA[1], subsA[2],
		subsB[0], subsB[1], subsB[2],
		0, 0, totalC,
	})
	combined := &AtomicStructure{
		Elements:  elements,
		Coords:    coords,
		Mode:      Cartesian,
		Lattice:   lattice,
		PBC:       [3]bool{true, true, true},
		StackAxis: 2,
	}
	wrapped, err := combined.Wrap()
	if err != nil {
		return nil, err
	}

	// The isolated film slab reference carries the same lateral strain as the
	// assembled interface, so adhesion scores subtract like against like.
	filmSlab := filmSC
	if cfg.ApplyStrain {
		filmSlab = filmSC.Clone()
		for k := 0; k < 3; k++ {
			filmSlab.Lattice.Set(0, k, filmA[k])
			filmSlab.Lattice.Set(1, k, filmB[k])
		}
	}
	return &assembledStack{
		structure:  wrapped,
		filmSlab:   filmSlab,
		subsSlab:   subsSC,
		nFilmAtoms: len(filmCart),
	}, nil
}

// displaceFilm returns a copy of the stack with the film block shifted
// in-plane by the fractional displacement.
func displaceFilm(stack *assembledStack, disp [2]float64) (*AtomicStructure, error) {
	out := stack.structure.Clone()
	for i := 0; i < stack.nFilmAtoms; i++ {
		out.Coords[i][0] = wrapFrac(out.Coords[i][0] + disp[0])
		out.Coords[i][1] = wrapFrac(out.Coords[i][1] + disp[1])
	}
	return out, nil
}

// interfaceMinDistance is the smallest film-substrate atom distance under
// periodic boundary conditions.
func interfaceMinDistance(s *AtomicStructure, nFilmAtoms int) float64 {
	carts := s.CartesianCoords()
	best := math.Inf(1)
	for i := 0; i < nFilmAtoms; i++ {
		for j := nFilmAtoms; j < len(carts); j++ {
			if d := s.MinimumImageDistance(carts[i], carts[j]); d < best {
				best = d
			}
		}
	}
	return best
}

func zExtent(carts [][3]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range carts {
		lo = math.Min(lo, p[2])
		hi = math.Max(hi, p[2])
	}
	return lo, hi
}

// candidateName reproduces the legacy interface naming scheme so downstream
// artifacts stay addressable by provenance.
func candidateName(p Provenance) string {
	joinIdx := func(m [3]int) string {
		return fmt.Sprintf("%d_%d_%d", m[0], m[1], m[2])
	}
	return strings.Join([]string{
		"Interface-" + p.SubsID,
		p.FilmID,
		"film_miller", joinIdx(p.FilmMiller),
		"sub_miller", joinIdx(p.SubsMiller),
		"film_thickness", trimFloat(p.FilmThickness),
		"subs_thickness", trimFloat(p.SubsThickness),
		"seperation", trimFloat(p.Separation),
		"disp", trimFloat(p.Displacement[0]), trimFloat(p.Displacement[1]),
	}, "_")
}

// trimFloat formats with three decimals, the legacy rounding digit.
func trimFloat(v float64) string {
	return fmt.Sprintf("%.3g", math.Round(v*1000)/1000)
}

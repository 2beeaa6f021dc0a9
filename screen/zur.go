// Zur-McGill superlattice matching: enumerate integer 2x2 supercell
// transforms for both lateral lattices, bring each candidate superlattice
// basis to its reduced form, and keep pairs whose reduced vectors coincide
// within length and angle tolerance.
//
// A. Zur and T. C. McGill, J. Appl. Phys. 55, 378 (1984).

package screen

import (
	"fmt"
	"math"
	"sort"
)

// SupercellTransform is an integer 2x2 matrix mapping a primitive lateral
// lattice to a candidate superlattice. Valid transforms have determinant >= 1
// (the area multiplication factor).
type SupercellTransform [2][2]int

// Identity is the trivial 1x1 supercell transform.
var Identity = SupercellTransform{{1, 0}, {0, 1}}

// Det returns the determinant (area multiple).
func (t SupercellTransform) Det() int {
	return t[0][0]*t[1][1] - t[0][1]*t[1][0]
}

// Apply returns the superlattice vectors produced by the transform.
func (t SupercellTransform) Apply(l LateralLattice) [2][3]float64 {
	var out [2][3]float64
	for k := 0; k < 3; k++ {
		out[0][k] = float64(t[0][0])*l.U[k] + float64(t[0][1])*l.V[k]
		out[1][k] = float64(t[1][0])*l.U[k] + float64(t[1][1])*l.V[k]
	}
	return out
}

// invFloat returns the inverse of the transform as a float matrix, used to
// map fractional coordinates into the supercell.
func (t SupercellTransform) invFloat() ([2][2]float64, error) {
	det := float64(t.Det())
	if det == 0 {
		return [2][2]float64{}, fmt.Errorf("transform %v is singular", t)
	}
	return [2][2]float64{
		{float64(t[1][1]) / det, -float64(t[0][1]) / det},
		{-float64(t[1][0]) / det, float64(t[0][0]) / det},
	}, nil
}

// boundingRange returns inclusive integer ranges covering all old-cell
// translations that can intersect the supercell.
func (t SupercellTransform) boundingRange() (lo1, hi1, lo2, hi2 int) {
	corners := [4][2]int{
		{0, 0},
		{t[0][0], t[0][1]},
		{t[1][0], t[1][1]},
		{t[0][0] + t[1][0], t[0][1] + t[1][1]},
	}
	lo1, hi1 = corners[0][0], corners[0][0]
	lo2, hi2 = corners[0][1], corners[0][1]
	for _, c := range corners[1:] {
		lo1, hi1 = min(lo1, c[0]), max(hi1, c[0])
		lo2, hi2 = min(lo2, c[1]), max(hi2, c[1])
	}
	return lo1 - 1, hi1 + 1, lo2 - 1, hi2 + 1
}

// LatticeMatch pairs one film transform with one substrate transform whose
// superlattices coincide within tolerance, plus the derived mismatch metrics.
// FilmVectors and SubsVectors are the superlattice bases in reduced form;
// MismatchU and MismatchV are the relative length differences of the film
// vectors against the substrate's (|f|/|s| - 1); MismatchAngle is the
// cell-angle difference in degrees.
type LatticeMatch struct {
	FilmTransform SupercellTransform
	SubsTransform SupercellTransform
	FilmVectors   [2][3]float64
	SubsVectors   [2][3]float64
	MismatchU     float64
	MismatchV     float64
	MismatchAngle float64
	AreaMismatch  float64
	Area          float64 // mean of film and substrate superlattice areas
}

// Mismatch is the summed relative mismatch used as a secondary sort key:
// both length mismatches plus the angle mismatch in radians.
func (m LatticeMatch) Mismatch() float64 {
	return math.Abs(m.MismatchU) + math.Abs(m.MismatchV) + m.MismatchAngle*math.Pi/180
}

// MaxLengthMismatch is the larger of the two per-vector length mismatches,
// recorded on candidates as the film strain magnitude.
func (m LatticeMatch) MaxLengthMismatch() float64 {
	return math.Max(math.Abs(m.MismatchU), math.Abs(m.MismatchV))
}

// reduceVectors brings a superlattice basis to Zur's reduced form: shortest
// vector first, non-negative dot product, and no shorter vector among v +- u.
// The reduction is unimodular, so the spanned lattice and cell area are
// unchanged; it makes equal superlattices produced by different transforms
// comparable vector-by-vector.
func reduceVectors(u, v [3]float64) ([3]float64, [3]float64) {
	for {
		switch {
		case dot3(u, v) < 0:
			v = scale3(v, -1)
		case norm3(u) > norm3(v):
			u, v = v, u
		case norm3(add3(u, v)) < norm3(v):
			v = add3(u, v)
		case norm3(sub3(v, u)) < norm3(v):
			v = sub3(v, u)
		default:
			return u, v
		}
	}
}

// enumerateTransforms yields all Hermite-normal-form transforms with
// determinant in [1, maxDet]. HNF enumeration visits every distinct
// superlattice exactly once.
func enumerateTransforms(maxDet int) []SupercellTransform {
	var out []SupercellTransform
	for n := 1; n <= maxDet; n++ {
		for i := 1; i <= n; i++ {
			if n%i != 0 {
				continue
			}
			m := n / i
			for j := 0; j < m; j++ {
				out = append(out, SupercellTransform{{i, j}, {0, m}})
			}
		}
	}
	return out
}

// MatchLattices searches commensurate superlattice pairs between a film and a
// substrate lateral lattice. Matches are returned sorted by combined area
// (smaller first, fewer atoms downstream), then by summed mismatch. An empty
// result means no pair satisfied the tolerances; the caller may relax and
// retry.
func MatchLattices(film, substrate LateralLattice, cfg MatchConfig) []LatticeMatch {
	if cfg.MaxAreaMultiple < 1 {
		return nil
	}
	transforms := enumerateTransforms(cfg.MaxAreaMultiple)

	var matches []LatticeMatch
	seen := make(map[string]bool)
	for _, tf := range transforms {
		fv := tf.Apply(film)
		fv[0], fv[1] = reduceVectors(fv[0], fv[1])
		fArea := norm3(cross3(fv[0], fv[1]))
		for _, ts := range transforms {
			sv := ts.Apply(substrate)
			sv[0], sv[1] = reduceVectors(sv[0], sv[1])
			sArea := norm3(cross3(sv[0], sv[1]))

			mu := norm3(fv[0])/norm3(sv[0]) - 1
			mv := norm3(fv[1])/norm3(sv[1]) - 1
			if math.Abs(mu) > cfg.LengthTol || math.Abs(mv) > cfg.LengthTol {
				continue
			}
			mAngle := math.Abs(angleDeg(fv[0], fv[1]) - angleDeg(sv[0], sv[1]))
			if mAngle > cfg.AngleTol {
				continue
			}
			area := (fArea + sArea) / 2
			if cfg.MaxArea > 0 && area > cfg.MaxArea {
				continue
			}

			m := LatticeMatch{
				FilmTransform: tf,
				SubsTransform: ts,
				FilmVectors:   fv,
				SubsVectors:   sv,
				MismatchU:     mu,
				MismatchV:     mv,
				MismatchAngle: mAngle,
				AreaMismatch:  math.Abs(fArea-sArea) / sArea,
				Area:          area,
			}
			// Distinct transform pairs can land on geometrically identical
			// superlattices; keep one representative.
			key := fmt.Sprintf("%.6f:%.6f:%.6f:%.6f", area, mu, mv, mAngle)
			if seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Area != matches[j].Area {
			return matches[i].Area < matches[j].Area
		}
		return matches[i].Mismatch() < matches[j].Mismatch()
	})
	return matches
}

// Slab generation: orient a bulk cell onto a Miller plane, enumerate distinct
// terminations, cleave slabs of the requested thickness, and classify
// polarity from the two face compositions.

package screen

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Termination is one symmetry-distinct slab cut of a surface.
type Termination struct {
	Structure  *AtomicStructure
	Index      int    // index of the cleavage layer within the oriented cell
	TopFace    string // composition signature of the top face
	BottomFace string // composition signature of the bottom face
	Polar      bool   // true when the two faces are compositionally inequivalent
}

// GenerateSurfaces produces the symmetry-distinct slab terminations of bulk
// along the given Miller plane. Terminations whose face-signature pairs
// coincide (directly or under face exchange) are merged into one
// representative. The slab thickness is in Angstrom; vacuum is added on both
// sides of the slab along the stacking axis.
func GenerateSurfaces(bulk *AtomicStructure, miller [3]int, cfg SurfaceConfig) ([]Termination, error) {
	if miller == [3]int{0, 0, 0} {
		return nil, fmt.Errorf("%w: (0,0,0)", ErrInvalidMillerIndex)
	}
	if err := bulk.Validate(); err != nil {
		return nil, err
	}
	miller = reduceMiller(miller)

	if cfg.FromConventional && cfg.Reducer != nil {
		bulk = cfg.Reducer(bulk)
	}

	cell, err := orientedCell(bulk, miller)
	if err != nil {
		return nil, err
	}
	frac, err := cell.FractionalCoords()
	if err != nil {
		return nil, err
	}
	layers := findLayers(cell.Elements, frac, cell.StackAxis)
	stackHeight := cell.LatticeRow(cell.StackAxis)[2] // perpendicular height after rotation

	if cfg.Thickness <= 0 || cfg.Thickness < stackHeight/float64(len(layers))-1e-8 {
		return nil, fmt.Errorf("%w: %.3f A is below one layer (%.3f A) of %v",
			ErrInsufficientThickness, cfg.Thickness, stackHeight/float64(len(layers)), miller)
	}
	nrep := int(math.Ceil(cfg.Thickness / stackHeight))
	if nrep < 1 {
		nrep = 1
	}

	var out []Termination
	seen := make(map[string]bool)
	for t := range layers {
		slab, err := cleaveSlab(cell, frac, layers[t].z, nrep, cfg.Vacuum)
		if err != nil {
			return nil, err
		}
		top, bottom := faceSignatures(slab)
		key := top + "|" + bottom
		if rev := bottom + "|" + top; rev < key {
			key = rev
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Termination{
			Structure:  slab,
			Index:      t,
			TopFace:    top,
			BottomFace: bottom,
			Polar:      top != bottom,
		})
	}
	logrus.Debugf("surface %v: %d layers, %d distinct terminations, %d cell repeats",
		miller, len(layers), len(out), nrep)
	return out, nil
}

// reduceMiller divides a Miller index by the gcd of its components.
func reduceMiller(m [3]int) [3]int {
	g := gcd(gcd(abs(m[0]), abs(m[1])), abs(m[2]))
	if g > 1 {
		m[0] /= g
		m[1] /= g
		m[2] /= g
	}
	return m
}

type layer struct {
	z         float64 // fractional position along the stacking axis
	signature string
}

// findLayers groups atoms into stacking-axis planes and returns them sorted
// bottom to top.
func findLayers(elements []string, frac [][3]float64, stackAxis int) []layer {
	const tol = 1e-4
	groups := make(map[int][]string)
	zs := make(map[int]float64)
	for i, f := range frac {
		z := wrapFrac(f[stackAxis])
		key := int(math.Round(z / tol))
		groups[key] = append(groups[key], elements[i])
		zs[key] = z
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]layer, 0, len(keys))
	for _, k := range keys {
		out = append(out, layer{z: zs[k], signature: compositionSignature(groups[k])})
	}
	return out
}

// compositionSignature is a canonical string form of an element multiset.
func compositionSignature(elements []string) string {
	counts := make(map[string]int)
	for _, e := range elements {
		counts[e]++
	}
	names := make([]string, 0, len(counts))
	for e := range counts {
		names = append(names, e)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, e := range names {
		parts[i] = fmt.Sprintf("%s%d", e, counts[e])
	}
	return strings.Join(parts, " ")
}

// cleaveSlab builds a vacuum-padded slab from the oriented cell, placing the
// layer at fractional height zCut on the bottom face and repeating the cell
// nrep times along the stacking axis.
func cleaveSlab(cell *AtomicStructure, frac [][3]float64, zCut float64, nrep int, vacuum float64) (*AtomicStructure, error) {
	a := cell.LatticeRow(0)
	b := cell.LatticeRow(1)
	c := cell.LatticeRow(2)
	height := c[2] // perpendicular repeat height

	n := len(frac)
	elements := make([]string, 0, n*nrep)
	coords := make([][3]float64, 0, n*nrep)
	for rep := 0; rep < nrep; rep++ {
		for i, f := range frac {
			fz := wrapFrac(f[2] - zCut)
			var p [3]float64
			for k := 0; k < 3; k++ {
				p[k] = f[0]*a[k] + f[1]*b[k] + (fz+float64(rep))*c[k]
			}
			p[2] += vacuum
			elements = append(elements, cell.Elements[i])
			coords = append(coords, p)
		}
	}

	lattice := mat.NewDense(3, 3, []float64{
		a[0], a[1], a[2],
		b[0], b[1], b[2],
		0, 0, float64(nrep)*height + 2*vacuum,
	})
	slab := &AtomicStructure{
		Elements:  elements,
		Coords:    coords,
		Mode:      Cartesian,
		Lattice:   lattice,
		PBC:       [3]bool{true, true, true},
		StackAxis: 2,
	}
	return slab.Wrap()
}

// faceSignatures returns the composition signatures of the topmost and
// bottommost atomic planes of a slab.
func faceSignatures(slab *AtomicStructure) (top, bottom string) {
	const tol = 0.05 // Angstrom
	carts := slab.CartesianCoords()
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, p := range carts {
		minZ = math.Min(minZ, p[2])
		maxZ = math.Max(maxZ, p[2])
	}
	var topEls, bottomEls []string
	for i, p := range carts {
		if p[2] > maxZ-tol {
			topEls = append(topEls, slab.Elements[i])
		}
		if p[2] < minZ+tol {
			bottomEls = append(bottomEls, slab.Elements[i])
		}
	}
	return compositionSignature(topEls), compositionSignature(bottomEls)
}

// orientedCell re-expresses bulk in a basis whose first two vectors span the
// Miller plane, then rotates it so those vectors lie in the xy plane with the
// surface normal along +z.
func orientedCell(bulk *AtomicStructure, miller [3]int) (*AtomicStructure, error) {
	oldRows := [3][3]float64{bulk.LatticeRow(0), bulk.LatticeRow(1), bulk.LatticeRow(2)}
	basis := slabBasis(miller, oldRows)

	src, err := bulk.ToFractional()
	if err != nil {
		return nil, err
	}

	// New lattice rows: integer combinations of the old rows.
	var rows [3][3]float64
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			rows[i][k] = float64(basis[i][0])*oldRows[0][k] +
				float64(basis[i][1])*oldRows[1][k] +
				float64(basis[i][2])*oldRows[2][k]
		}
	}
	// Keep the cell right-handed so the normal points along +z after rotation.
	if dot3(cross3(rows[0], rows[1]), rows[2]) < 0 {
		for k := 0; k < 3; k++ {
			rows[2][k] = -rows[2][k]
			basis[2][k] = -basis[2][k]
		}
	}

	// Atoms map one-to-one through the unimodular basis change:
	// fNew = fOld * inv(basis).
	bf := mat.NewDense(3, 3, []float64{
		float64(basis[0][0]), float64(basis[0][1]), float64(basis[0][2]),
		float64(basis[1][0]), float64(basis[1][1]), float64(basis[1][2]),
		float64(basis[2][0]), float64(basis[2][1]), float64(basis[2][2]),
	})
	var inv mat.Dense
	if err := inv.Inverse(bf); err != nil {
		return nil, fmt.Errorf("oriented cell: %w: %v", ErrDegenerateLattice, err)
	}
	coords := make([][3]float64, len(src.Coords))
	for i, f := range src.Coords {
		for k := 0; k < 3; k++ {
			coords[i][k] = wrapFrac(f[0]*inv.At(0, k) + f[1]*inv.At(1, k) + f[2]*inv.At(2, k))
		}
	}

	rot := rotateToPlane(rows)
	lattice := mat.NewDense(3, 3, []float64{
		rot[0][0], rot[0][1], rot[0][2],
		rot[1][0], rot[1][1], rot[1][2],
		rot[2][0], rot[2][1], rot[2][2],
	})
	return &AtomicStructure{
		Elements:  append([]string(nil), src.Elements...),
		Coords:    coords,
		Mode:      Fractional,
		Lattice:   lattice,
		PBC:       [3]bool{true, true, true},
		StackAxis: 2,
	}, nil
}

// rotateToPlane rigidly rotates the cell so row 0 lies along x, row 1 in the
// xy plane, and the normal along +z. Fractional coordinates are invariant
// under the rotation.
func rotateToPlane(rows [3][3]float64) [3][3]float64 {
	xhat := scale3(rows[0], 1/norm3(rows[0]))
	zhat := cross3(rows[0], rows[1])
	zhat = scale3(zhat, 1/norm3(zhat))
	yhat := cross3(zhat, xhat)
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		out[i] = [3]float64{dot3(rows[i], xhat), dot3(rows[i], yhat), dot3(rows[i], zhat)}
	}
	// The in-plane rows have zero normal component by construction; zero the
	// rounding residue so LateralLattice sees exact in-plane vectors.
	out[0][2] = 0
	out[1][2] = 0
	return out
}

// slabBasis returns an integer basis (rows, in units of the bulk lattice
// vectors) whose first two rows span the (h k l) plane and whose third row
// completes a unimodular cell. Follows the extended-Euclid construction of
// Zur's surface cell algorithm.
func slabBasis(miller [3]int, rows [3][3]float64) [3][3]int {
	h, k, l := miller[0], miller[1], miller[2]
	switch {
	case k == 0 && l == 0:
		return [3][3]int{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}}
	case h == 0 && l == 0:
		return [3][3]int{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}}
	case h == 0 && k == 0:
		return [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	p, q, g := extGCD(k, l)
	if g < 0 {
		p, q, g = -p, -q, -g
	}
	// Reduce (p, q) toward the most orthogonal in-plane pair. The shift
	// p -> p+i*l, q -> q-i*k leaves p*k+q*l unchanged, so validity is
	// unaffected; only the cell shape improves.
	a1, a2, a3 := rows[0], rows[1], rows[2]
	var v1, v2, w [3]float64
	for i := 0; i < 3; i++ {
		v1[i] = float64(p)*(float64(k)*a1[i]-float64(h)*a2[i]) + float64(q)*(float64(l)*a1[i]-float64(h)*a3[i])
		v2[i] = float64(l)*(float64(k)*a1[i]-float64(h)*a2[i]) - float64(k)*(float64(l)*a1[i]-float64(h)*a3[i])
		w[i] = float64(l)*a2[i] - float64(k)*a3[i]
	}
	k1 := dot3(v1, w)
	k2 := dot3(v2, w)
	if math.Abs(k2) > 1e-10 {
		i := -int(math.Round(k1 / k2))
		p, q = p+i*l, q-i*k
	}
	a, b, e := extGCD(p*k+q*l, h)
	if e < 0 {
		a, b = -a, -b
	}
	return [3][3]int{
		{p*k + q*l, -p * h, -q * h},
		{0, l / g, -k / g},
		{b, a * p, a * q},
	}
}

// extGCD returns (x, y, g) with a*x + b*y = g where |g| = gcd(|a|, |b|).
func extGCD(a, b int) (int, int, int) {
	r0, r1 := a, b
	s0, s1 := 1, 0
	t0, t1 := 0, 1
	for r1 != 0 {
		q := r0 / r1
		r0, r1 = r1, r0-q*r1
		s0, s1 = s1, s0-q*s1
		t0, t1 = t1, t0-q*t1
	}
	return s0, t0, r0
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

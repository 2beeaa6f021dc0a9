package calc

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hetero-screen/hetero-screen/screen"
)

// PairCoeffs parameterize one species pair of the surrogate model:
// E(r) = A * exp(-r / Rho) - C6 / r^6, with A in eV, Rho in Angstrom and C6
// in eV*A^6. The table is the distilled form of a trained interatomic
// surrogate; coefficients are fitted offline and loaded here read-only.
type PairCoeffs struct {
	A   float64 `yaml:"a"`
	Rho float64 `yaml:"rho"`
	C6  float64 `yaml:"c6"`
}

// Surrogate is the ML-surrogate backend variant: a tabulated pairwise model
// evaluated over minimum-image pairs. Same contract as every other backend;
// the orchestrator cannot tell it apart from the ab-initio path.
type Surrogate struct {
	coeffs map[string]PairCoeffs // keyed by canonical "A-B" pair, elements sorted
	cutoff float64
}

// PairKey returns the canonical coefficient-table key for two species.
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "-" + pair[1]
}

// NewSurrogate validates the coefficient table at construction.
func NewSurrogate(coeffs map[string]PairCoeffs, cutoff float64) (*Surrogate, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: surrogate has no pair coefficients", screen.ErrCalculatorUnavailable)
	}
	if cutoff <= 0 {
		return nil, fmt.Errorf("%w: surrogate cutoff %.3f <= 0", screen.ErrCalculatorUnavailable, cutoff)
	}
	for key, c := range coeffs {
		if c.Rho <= 0 || math.IsNaN(c.A) || math.IsNaN(c.C6) {
			return nil, fmt.Errorf("%w: surrogate coefficients for %s invalid", screen.ErrCalculatorUnavailable, key)
		}
	}
	return &Surrogate{coeffs: coeffs, cutoff: cutoff}, nil
}

func (m *Surrogate) Name() string { return "surrogate" }

// Evaluate returns the tabulated pairwise energy in eV.
func (m *Surrogate) Evaluate(ctx context.Context, s *screen.AtomicStructure) (float64, error) {
	carts := s.CartesianCoords()
	var energy float64
	for i := 0; i < len(carts); i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", screen.ErrNotConverged, err)
		}
		for j := i + 1; j < len(carts); j++ {
			key := PairKey(s.Elements[i], s.Elements[j])
			c, ok := m.coeffs[key]
			if !ok {
				return 0, fmt.Errorf("%w: no surrogate coefficients for pair %s", screen.ErrCalculatorUnavailable, key)
			}
			r := s.MinimumImageDistance(carts[i], carts[j])
			if r > m.cutoff {
				continue
			}
			r6 := r * r * r * r * r * r
			energy += c.A*math.Exp(-r/c.Rho) - c.C6/r6
		}
	}
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return 0, fmt.Errorf("%w: surrogate energy is not finite", screen.ErrNotConverged)
	}
	return energy, nil
}

// LoadSurrogateCoeffs reads a pair-coefficient table from a YAML file.
func LoadSurrogateCoeffs(path string) (map[string]PairCoeffs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading surrogate coefficients: %v", screen.ErrCalculatorUnavailable, err)
	}
	var coeffs map[string]PairCoeffs
	if err := yaml.Unmarshal(raw, &coeffs); err != nil {
		return nil, fmt.Errorf("%w: parsing surrogate coefficients %s: %v", screen.ErrCalculatorUnavailable, path, err)
	}
	return coeffs, nil
}

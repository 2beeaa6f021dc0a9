// Package calc provides calculator backends for the screening pipeline.
// The Calculator interface is defined in screen/ (parent package).
// This package provides PairPotential (fast approximate Lennard-Jones),
// Surrogate (tabulated Born-Mayer surrogate) and Exec (external engine).
package calc

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hetero-screen/hetero-screen/screen"
)

// LJParams are per-species Lennard-Jones parameters. Sigma in Angstrom,
// Epsilon in eV. Cross terms use Lorentz-Berthelot mixing.
type LJParams struct {
	Sigma   float64 `yaml:"sigma"`
	Epsilon float64 `yaml:"epsilon"`
}

// PairPotential is the fast-approximate backend: a cutoff Lennard-Jones sum
// over minimum-image pairs. It stands in for empirical potentials in the
// initial geometry screen; energies are crude but the ordering across
// registries is what the screen consumes.
type PairPotential struct {
	params map[string]LJParams
	cutoff float64
}

// NewPairPotential validates parameters at construction: every species needs
// positive sigma and non-negative epsilon, and the cutoff must be positive.
func NewPairPotential(params map[string]LJParams, cutoff float64) (*PairPotential, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: pair potential has no species parameters", screen.ErrCalculatorUnavailable)
	}
	if cutoff <= 0 {
		return nil, fmt.Errorf("%w: pair potential cutoff %.3f <= 0", screen.ErrCalculatorUnavailable, cutoff)
	}
	for el, p := range params {
		if p.Sigma <= 0 || p.Epsilon < 0 {
			return nil, fmt.Errorf("%w: pair potential parameters for %s invalid (sigma=%.3f, epsilon=%.4f)",
				screen.ErrCalculatorUnavailable, el, p.Sigma, p.Epsilon)
		}
	}
	return &PairPotential{params: params, cutoff: cutoff}, nil
}

func (p *PairPotential) Name() string { return "pair" }

// Evaluate returns the total Lennard-Jones energy in eV.
func (p *PairPotential) Evaluate(ctx context.Context, s *screen.AtomicStructure) (float64, error) {
	for _, el := range s.Elements {
		if _, ok := p.params[el]; !ok {
			return 0, fmt.Errorf("%w: no pair parameters for species %s", screen.ErrCalculatorUnavailable, el)
		}
	}
	carts := s.CartesianCoords()
	var energy float64
	for i := 0; i < len(carts); i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", screen.ErrNotConverged, err)
		}
		pi := p.params[s.Elements[i]]
		for j := i + 1; j < len(carts); j++ {
			pj := p.params[s.Elements[j]]
			r := s.MinimumImageDistance(carts[i], carts[j])
			if r > p.cutoff {
				continue
			}
			sigma := (pi.Sigma + pj.Sigma) / 2
			eps := math.Sqrt(pi.Epsilon * pj.Epsilon)
			sr := sigma / r
			sr6 := sr * sr * sr * sr * sr * sr
			energy += 4 * eps * (sr6*sr6 - sr6)
		}
	}
	return energy, nil
}

// DefaultLJParams is a small UFF-derived starter table covering the demo
// materials. Callers with other chemistries load their own table.
func DefaultLJParams() map[string]LJParams {
	return map[string]LJParams{
		"Si": {Sigma: 3.826, Epsilon: 0.0175},
		"Ge": {Sigma: 3.813, Epsilon: 0.0164},
		"C":  {Sigma: 3.431, Epsilon: 0.0046},
		"Al": {Sigma: 4.008, Epsilon: 0.0219},
		"Cu": {Sigma: 3.114, Epsilon: 0.0002},
		"Ag": {Sigma: 2.805, Epsilon: 0.0016},
		"Au": {Sigma: 2.934, Epsilon: 0.0017},
		"Ni": {Sigma: 2.525, Epsilon: 0.0007},
		"O":  {Sigma: 3.118, Epsilon: 0.0026},
	}
}

// LoadLJParams reads a species parameter table from a YAML file.
func LoadLJParams(path string) (map[string]LJParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pair parameters: %v", screen.ErrCalculatorUnavailable, err)
	}
	var params map[string]LJParams
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: parsing pair parameters %s: %v", screen.ErrCalculatorUnavailable, path, err)
	}
	return params, nil
}

package screen

import (
	"context"
	"fmt"
)

// Calculator is the uniform contract over heterogeneous energy-evaluation
// backends (fast approximate, ML surrogate, ab initio). Evaluate returns the
// total energy of a structure in eV. Side effects (scratch files, child
// processes) are entirely the backend's; from the core's perspective Evaluate
// is a pure function of structure and options. Backends must honor ctx
// cancellation and deadlines.
//
// Failure contract: ErrCalculatorUnavailable means the backend is missing or
// misconfigured; ErrNotConverged means the backend ran but did not reach a
// numerically stable result and is recorded as a non-converged ScoreRecord,
// never a hard failure.
type Calculator interface {
	Name() string
	Evaluate(ctx context.Context, s *AtomicStructure) (float64, error)
}

// ScoreRecord is the outcome of evaluating one interface candidate.
// Append-only: records are never mutated after creation.
type ScoreRecord struct {
	CandidateIndex int
	Candidate      string  // provenance name
	Energy         float64 // total interface energy in eV
	Score          float64 // adhesion score in J/m^2 (see Screen)
	Calculator     string
	Converged      bool
}

// NewCalculatorFunc is the backend factory registration point. The
// screen/calc sub-package sets it from init(), breaking the import cycle
// between screen (interface owner) and screen/calc (implementations).
var NewCalculatorFunc func(cfg CalculatorConfig) (Calculator, error)

// NewCalculator builds the configured backend via the registered factory.
func NewCalculator(cfg CalculatorConfig) (Calculator, error) {
	if NewCalculatorFunc == nil {
		return nil, fmt.Errorf("%w: no backends registered (import screen/calc)", ErrCalculatorUnavailable)
	}
	return NewCalculatorFunc(cfg)
}

package screen

import "errors"

// Sentinel errors for the pipeline's failure taxonomy. Input-validation
// errors (Miller index, lattice, thickness) fail fast and are non-retryable
// without correcting input. Backend errors are isolated to the single
// evaluation that raised them; ErrNotConverged in particular is recorded as a
// non-converged ScoreRecord rather than aborting a screen.
var (
	// ErrInvalidMillerIndex reports a degenerate (all-zero) Miller index.
	ErrInvalidMillerIndex = errors.New("invalid miller index")

	// ErrInsufficientThickness reports a requested slab thickness below a
	// single atomic layer of the oriented cell.
	ErrInsufficientThickness = errors.New("insufficient slab thickness")

	// ErrDegenerateLattice reports a singular lattice matrix.
	ErrDegenerateLattice = errors.New("degenerate lattice")

	// ErrCalculatorUnavailable reports a missing or misconfigured backend.
	ErrCalculatorUnavailable = errors.New("calculator unavailable")

	// ErrNotConverged reports that a backend ran but did not reach a
	// numerically stable result. Timeouts map onto this too.
	ErrNotConverged = errors.New("calculation not converged")
)

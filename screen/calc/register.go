// register.go wires the calc constructors into the screen package's
// registration variable (NewCalculatorFunc). This init() runs when any
// package imports screen/calc, breaking the import cycle between screen/
// (interface owner) and screen/calc/ (implementations).
package calc

import (
	"fmt"
	"strconv"

	"github.com/hetero-screen/hetero-screen/screen"
)

const defaultCutoff = 10.0 // Angstrom

func init() {
	screen.NewCalculatorFunc = New
}

// New builds the backend selected by cfg.Backend. The empty backend name
// defaults to the fast pair potential.
func New(cfg screen.CalculatorConfig) (screen.Calculator, error) {
	cutoff := defaultCutoff
	if v, ok := cfg.Options["cutoff"]; ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cutoff option %q: %v", screen.ErrCalculatorUnavailable, v, err)
		}
		cutoff = parsed
	}

	switch cfg.Backend {
	case "", "pair":
		params := DefaultLJParams()
		if cfg.ParamsPath != "" {
			loaded, err := LoadLJParams(cfg.ParamsPath)
			if err != nil {
				return nil, err
			}
			params = loaded
		}
		return NewPairPotential(params, cutoff)
	case "surrogate":
		if cfg.ParamsPath == "" {
			return nil, fmt.Errorf("%w: surrogate backend needs a coefficient table path", screen.ErrCalculatorUnavailable)
		}
		coeffs, err := LoadSurrogateCoeffs(cfg.ParamsPath)
		if err != nil {
			return nil, err
		}
		return NewSurrogate(coeffs, cutoff)
	case "exec":
		return NewExec(cfg.Command)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", screen.ErrCalculatorUnavailable, cfg.Backend)
	}
}

package screen

import "time"

// SurfaceConfig groups slab-generation parameters for GenerateSurfaces.
type SurfaceConfig struct {
	Thickness        float64                                // slab thickness in Angstrom (must be >= one layer)
	Vacuum           float64                                // vacuum added on each side of the slab (Angstrom)
	FromConventional bool                                   // reduce the bulk to its conventional cell first
	Reducer          func(*AtomicStructure) *AtomicStructure // conventional-cell reducer (external collaborator; nil = identity)
}

// MatchConfig groups Zur-McGill search parameters for MatchLattices.
type MatchConfig struct {
	MaxAreaMultiple int     // cap on the supercell transform determinant (must be >= 1)
	MaxArea         float64 // ceiling on the combined superlattice area in sq. Angstrom (0 = unbounded)
	LengthTol       float64 // relative lattice-vector length tolerance
	AngleTol        float64 // lattice-vector angle tolerance in degrees
}

// AssemblyConfig groups interface-assembly parameters for Assemble.
type AssemblyConfig struct {
	Separation  float64 // film-substrate gap along the stacking axis (Angstrom)
	Vacuum      float64 // vacuum added on each side of the combined stack (Angstrom)
	DispIntvl   float64 // lateral displacement grid interval in fractional units (0 = single zero registry)
	MinDistance float64 // hard-sphere floor on cross-interface distances (Angstrom, 0 = no filter)
	ApplyStrain bool    // strain the film onto the substrate lateral lattice
}

// ScreenConfig groups evaluation-orchestration parameters for Screen.
type ScreenConfig struct {
	Workers     int           // evaluation pool size (<= 0 means runtime.NumCPU)
	EvalTimeout time.Duration // per-evaluation timeout (0 = none)
}

// CalculatorConfig selects and parameterizes a calculator backend. Options
// are opaque to the core and passed through to the backend unmodified.
type CalculatorConfig struct {
	Backend    string            // "pair" (default), "surrogate", "exec"
	ParamsPath string            // parameter table path for table-driven backends
	Command    []string          // external engine invocation for the exec backend
	Options    map[string]string // backend-specific options, passed through
}

// DefaultSurfaceConfig mirrors the thickness/vacuum defaults of the original
// interface-combination workflow.
func DefaultSurfaceConfig() SurfaceConfig {
	return SurfaceConfig{Thickness: 8, Vacuum: 2.5, FromConventional: true}
}

// DefaultMatchConfig mirrors the original search defaults: 8% length
// tolerance, 1 degree angle tolerance, 300 sq. Angstrom area ceiling.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{MaxAreaMultiple: 6, MaxArea: 300, LengthTol: 0.08, AngleTol: 1}
}

// DefaultAssemblyConfig mirrors the original assembly defaults.
func DefaultAssemblyConfig() AssemblyConfig {
	return AssemblyConfig{Separation: 2.5, Vacuum: 2.5, DispIntvl: 0, MinDistance: 1.0, ApplyStrain: true}
}

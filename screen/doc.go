// Package screen provides the core interface-generation and screening pipeline.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - structure.go: AtomicStructure value type and lattice geometry
//   - zur.go: the Zur-McGill superlattice matching search
//   - orchestrator.go: candidate evaluation, scoring, and selection
//
// # Architecture
//
// The screen package defines interfaces and bridge types; implementations live
// in sub-packages:
//   - screen/calc/: calculator backends (pair potential, surrogate, external exec)
//   - screen/matdb/: bulk-structure lookup (YAML registry, in-memory table)
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewCalculatorFunc).
//
// # Pipeline
//
// Data flows strictly downward:
//
//	bulk structures -> GenerateSurfaces -> MatchLattices -> Assemble -> Screen
//
// Each stage is a pure function returning new values; structures are never
// mutated once handed downstream. Search exhaustion (no lattice match within
// tolerance, no candidate above the contact-distance floor) is an empty
// result, not an error; callers relax tolerances and retry.
package screen

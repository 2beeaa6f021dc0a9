package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hetero-screen/hetero-screen/screen"
	_ "github.com/hetero-screen/hetero-screen/screen/calc" // register calculator backends
	"github.com/hetero-screen/hetero-screen/screen/matdb"
)

var (
	// CLI flags for material selection
	logLevel      string // Log verbosity level
	filmID        string // Film (top) material id
	subsID        string // Substrate (bottom) material id
	filmMiller    []int  // Film Miller index
	subsMiller    []int  // Substrate Miller index
	materialsPath string // YAML materials registry (empty = built-in demo table)

	// CLI flags for geometry
	thickness  float64 // Slab thickness (Angstrom)
	slabVac    float64 // Surface vacuum (Angstrom)
	separation float64 // Interface separation (Angstrom)
	intfVac    float64 // Interface vacuum (Angstrom)
	dispIntvl  float64 // Lateral displacement grid interval (fractional)
	minDist    float64 // Hard-sphere contact floor (Angstrom)

	// CLI flags for the lattice match search
	maxAreaMultiple int     // Max supercell transform determinant
	maxArea         float64 // Max combined superlattice area (sq. Angstrom)
	lengthTol       float64 // Relative length tolerance
	angleTol        float64 // Angle tolerance (degrees)

	// CLI flags for evaluation
	backend     string        // Calculator backend name
	paramsPath  string        // Backend parameter table
	execCommand []string      // External engine command for the exec backend
	workers     int           // Evaluation pool size
	evalTimeout time.Duration // Per-evaluation timeout
)

// screenCmd runs the full generate-and-screen pipeline from CLI flags
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Generate interface candidates and rank them by work of adhesion",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if filmID == "" || subsID == "" {
			logrus.Fatalf("Film and substrate material ids are required. Exiting screen.")
		}
		fMiller, err := toMiller(filmMiller)
		if err != nil {
			logrus.Fatalf("Film Miller index: %v", err)
		}
		sMiller, err := toMiller(subsMiller)
		if err != nil {
			logrus.Fatalf("Substrate Miller index: %v", err)
		}

		var lookup matdb.Lookup
		if materialsPath != "" {
			table, err := matdb.LoadRegistry(materialsPath)
			if err != nil {
				logrus.Fatalf("Loading materials registry: %v", err)
			}
			lookup = table
		} else {
			lookup = matdb.DemoTable()
		}

		film, err := lookup.Get(filmID)
		if err != nil {
			logrus.Fatalf("Film lookup: %v", err)
		}
		subs, err := lookup.Get(subsID)
		if err != nil {
			logrus.Fatalf("Substrate lookup: %v", err)
		}

		surfCfg := screen.SurfaceConfig{Thickness: thickness, Vacuum: slabVac, FromConventional: true}
		filmTerms, err := screen.GenerateSurfaces(film, fMiller, surfCfg)
		if err != nil {
			logrus.Fatalf("Film surfaces: %v", err)
		}
		subsTerms, err := screen.GenerateSurfaces(subs, sMiller, surfCfg)
		if err != nil {
			logrus.Fatalf("Substrate surfaces: %v", err)
		}
		logrus.Infof("Generated %d film and %d substrate terminations", len(filmTerms), len(subsTerms))

		matchCfg := screen.MatchConfig{
			MaxAreaMultiple: maxAreaMultiple,
			MaxArea:         maxArea,
			LengthTol:       lengthTol,
			AngleTol:        angleTol,
		}
		matches := screen.MatchLattices(
			screen.Lateral(filmTerms[0].Structure),
			screen.Lateral(subsTerms[0].Structure),
			matchCfg,
		)
		if len(matches) == 0 {
			logrus.Warnf("No lattice match within tolerance (ltol=%.3f, atol=%.2f deg); relax tolerances and retry.", lengthTol, angleTol)
			return
		}
		best := matches[0]
		logrus.Infof("Best lattice match: area %.2f A^2, mismatch u=%.4f v=%.4f angle=%.3f deg",
			best.Area, best.MismatchU, best.MismatchV, best.MismatchAngle)

		asmCfg := screen.AssemblyConfig{
			Separation:  separation,
			Vacuum:      intfVac,
			DispIntvl:   dispIntvl,
			MinDistance: minDist,
			ApplyStrain: true,
		}
		var candidates []screen.InterfaceCandidate
		for _, ft := range filmTerms {
			for _, st := range subsTerms {
				meta := screen.Provenance{
					FilmID:        filmID,
					SubsID:        subsID,
					FilmMiller:    fMiller,
					SubsMiller:    sMiller,
					FilmThickness: thickness,
					SubsThickness: thickness,
				}
				cands, err := screen.Assemble(ft, st, best, asmCfg, meta)
				if err != nil {
					logrus.Fatalf("Assembling terminations (%d, %d): %v", ft.Index, st.Index, err)
				}
				candidates = append(candidates, cands...)
			}
		}
		if len(candidates) == 0 {
			logrus.Warnf("No candidate above the %.2f A contact floor; adjust separation or the floor and retry.", minDist)
			return
		}

		calculator, err := screen.NewCalculator(screen.CalculatorConfig{
			Backend:    backend,
			ParamsPath: paramsPath,
			Command:    execCommand,
		})
		if err != nil {
			logrus.Fatalf("Calculator: %v", err)
		}

		result, err := screen.Screen(context.Background(), candidates, calculator, screen.ScreenConfig{
			Workers:     workers,
			EvalTimeout: evalTimeout,
		})
		if err != nil {
			logrus.Fatalf("Screen: %v", err)
		}

		printRanked(result)
	},
}

// printRanked writes the ranked score table and the selection to stdout.
func printRanked(result *screen.ScreenResult) {
	fmt.Printf("%-6s %-12s %-12s %-10s %s\n", "rank", "W_ad(J/m^2)", "E(eV)", "converged", "candidate")
	for i, rec := range result.Ranked {
		fmt.Printf("%-6d %-12.4f %-12.4f %-10v %s\n", i+1, rec.Score, rec.Energy, rec.Converged, rec.Candidate)
	}
	if result.Selected == nil {
		fmt.Println("selected: none (no converged evaluation)")
		return
	}
	p := result.Selected.Provenance
	fmt.Printf("selected: %s\n", p.Name)
	fmt.Printf("  displacement: (%.3f, %.3f)  separation: %.2f A  film strain: %.4f\n",
		p.Displacement[0], p.Displacement[1], p.Separation, p.FilmStrain)
	fmt.Printf("  wall time: %s (%d slab evaluations)\n", result.WallTime.Round(time.Millisecond), result.SlabEvaluations)
}

// toMiller converts the flag slice to a Miller index.
func toMiller(v []int) ([3]int, error) {
	if len(v) != 3 {
		return [3]int{}, fmt.Errorf("need exactly three integers, got %d", len(v))
	}
	return [3]int{v[0], v[1], v[2]}, nil
}

// init sets up CLI flags and subcommands
func init() {
	screenCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// material selection
	screenCmd.Flags().StringVar(&filmID, "film", "", "Film material id")
	screenCmd.Flags().StringVar(&subsID, "subs", "", "Substrate material id")
	screenCmd.Flags().IntSliceVar(&filmMiller, "film-miller", []int{0, 0, 1}, "Film Miller index h,k,l")
	screenCmd.Flags().IntSliceVar(&subsMiller, "subs-miller", []int{0, 0, 1}, "Substrate Miller index h,k,l")
	screenCmd.Flags().StringVar(&materialsPath, "materials", "", "YAML materials registry (default: built-in demo table)")

	// geometry
	screenCmd.Flags().Float64Var(&thickness, "thickness", 8, "Slab thickness in Angstrom")
	screenCmd.Flags().Float64Var(&slabVac, "surface-vacuum", 2.5, "Vacuum on each side of a slab in Angstrom")
	screenCmd.Flags().Float64Var(&separation, "separation", 2.5, "Film-substrate separation in Angstrom")
	screenCmd.Flags().Float64Var(&intfVac, "vacuum", 2.5, "Vacuum on each side of the interface in Angstrom")
	screenCmd.Flags().Float64Var(&dispIntvl, "disp-intvl", 0, "Lateral displacement grid interval in fractional units (0 = single registry)")
	screenCmd.Flags().Float64Var(&minDist, "min-distance", 1.0, "Hard-sphere floor on cross-interface distances in Angstrom")

	// lattice match search
	screenCmd.Flags().IntVar(&maxAreaMultiple, "max-area-multiple", 6, "Maximum supercell transform determinant")
	screenCmd.Flags().Float64Var(&maxArea, "max-area", 300, "Maximum combined superlattice area in sq. Angstrom")
	screenCmd.Flags().Float64Var(&lengthTol, "ltol", 0.08, "Relative lattice-vector length tolerance")
	screenCmd.Flags().Float64Var(&angleTol, "atol", 1, "Lattice-vector angle tolerance in degrees")

	// evaluation
	screenCmd.Flags().StringVar(&backend, "calculator", "pair", "Calculator backend (pair, surrogate, exec)")
	screenCmd.Flags().StringVar(&paramsPath, "params", "", "Backend parameter table (YAML)")
	screenCmd.Flags().StringSliceVar(&execCommand, "exec-command", nil, "External engine command for the exec backend")
	screenCmd.Flags().IntVar(&workers, "workers", 0, "Evaluation pool size (0 = NumCPU)")
	screenCmd.Flags().DurationVar(&evalTimeout, "timeout", 0, "Per-evaluation timeout (0 = none)")

	rootCmd.AddCommand(screenCmd)
}

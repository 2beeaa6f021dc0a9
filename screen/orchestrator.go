// Screening orchestration: drive a calculator across all interface
// candidates, score each by work of adhesion, and select the optimum.

package screen

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EVPerSqAngstromToJPerSqM converts an energy density from eV/A^2 to J/m^2.
// The adhesion convention is W_ad = this * (E_int - E_film - E_subs) / A,
// per unit contact area for every backend; negative W_ad means binding. The
// magnitude is symmetric under film/substrate exchange.
const EVPerSqAngstromToJPerSqM = 16.0218

// ScreenResult bundles all outputs of a screen.
type ScreenResult struct {
	Records []ScoreRecord // one per evaluated candidate, in candidate order
	Ranked  []ScoreRecord // converged ascending by (score, film strain), then non-converged

	Selected       *InterfaceCandidate // nil when nothing converged
	SelectedRecord *ScoreRecord

	SlabEvaluations int // distinct isolated-slab evaluations performed

	WallTime time.Duration
}

// slabEnergy is one cached isolated-slab evaluation.
type slabEnergy struct {
	energy    float64
	converged bool
}

// Screen evaluates every candidate with calc and selects the candidate with
// the minimum adhesion score, ties broken by smallest recorded film strain.
//
// Isolated slabs are evaluated exactly once per distinct slab, eagerly,
// before the parallel candidate dispatch: O(candidates) interface
// evaluations plus O(distinct slabs) slab evaluations, and the cache is
// read-only during the parallel phase.
//
// Backend failures and timeouts are isolated to their candidate and recorded
// as non-converged; the screen never aborts for them. On context
// cancellation the records completed so far are returned together with the
// context's error.
func Screen(ctx context.Context, candidates []InterfaceCandidate, calc Calculator, cfg ScreenConfig) (*ScreenResult, error) {
	start := time.Now()
	result := &ScreenResult{}

	cache := make(map[*AtomicStructure]slabEnergy)
	for i := range candidates {
		for _, slab := range []*AtomicStructure{candidates[i].FilmSlab, candidates[i].SubsSlab} {
			if slab == nil {
				return nil, fmt.Errorf("screen: candidate %d has no isolated-slab reference", i)
			}
			if _, ok := cache[slab]; ok {
				continue
			}
			energy, converged, err := evalOnce(ctx, calc, slab, cfg.EvalTimeout)
			if err != nil {
				return nil, err
			}
			cache[slab] = slabEnergy{energy: energy, converged: converged}
		}
	}
	result.SlabEvaluations = len(cache)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logrus.Infof("screen: evaluating %d candidates with %s across %d workers (%d slab references cached)",
		len(candidates), calc.Name(), workers, len(cache))

	jobs := make(chan int)
	var mu sync.Mutex
	var records []ScoreRecord
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec := evalCandidate(ctx, calc, &candidates[idx], idx, cache, cfg.EvalTimeout)
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := range candidates {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool { return records[i].CandidateIndex < records[j].CandidateIndex })
	result.Records = records
	result.Ranked = rankRecords(records, candidates)

	for i := range result.Ranked {
		if result.Ranked[i].Converged {
			rec := result.Ranked[i]
			result.SelectedRecord = &rec
			result.Selected = &candidates[rec.CandidateIndex]
			break
		}
	}
	result.WallTime = time.Since(start)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if result.Selected == nil {
		logrus.Warnf("screen: no converged evaluation; empty selection")
	} else {
		logrus.Infof("screen: selected %s (W_ad = %.4f J/m^2)", result.Selected.Provenance.Name, result.SelectedRecord.Score)
	}
	return result, nil
}

// evalOnce evaluates an isolated slab. A non-nil error is returned only for
// configuration-level failures that make the whole screen impossible.
func evalOnce(ctx context.Context, calc Calculator, s *AtomicStructure, timeout time.Duration) (energy float64, converged bool, err error) {
	evalCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	energy, evalErr := calc.Evaluate(evalCtx, s)
	switch {
	case evalErr == nil:
		return energy, true, nil
	case errors.Is(evalErr, ErrNotConverged) || errors.Is(evalErr, context.DeadlineExceeded):
		logrus.Warnf("screen: isolated slab evaluation did not converge: %v", evalErr)
		return 0, false, nil
	default:
		return 0, false, evalErr
	}
}

// evalCandidate evaluates one interface candidate, mapping every backend
// failure to a non-converged record. A candidate whose slab references did
// not converge cannot be scored and is recorded as non-converged without
// spending an interface evaluation.
func evalCandidate(ctx context.Context, calc Calculator, cand *InterfaceCandidate, idx int, cache map[*AtomicStructure]slabEnergy, timeout time.Duration) ScoreRecord {
	rec := ScoreRecord{
		CandidateIndex: idx,
		Candidate:      cand.Provenance.Name,
		Calculator:     calc.Name(),
	}
	film := cache[cand.FilmSlab]
	subs := cache[cand.SubsSlab]
	if !film.converged || !subs.converged {
		return rec
	}

	evalCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	energy, err := calc.Evaluate(evalCtx, cand.Structure)
	if err != nil {
		logrus.Warnf("screen: candidate %d (%s): %v", idx, cand.Provenance.Name, err)
		return rec
	}
	rec.Energy = energy
	rec.Score = EVPerSqAngstromToJPerSqM * (energy - film.energy - subs.energy) / cand.Structure.Area()
	rec.Converged = true
	return rec
}

// rankRecords orders converged records ascending by score, ties broken by
// smaller recorded film strain, and appends non-converged records after.
func rankRecords(records []ScoreRecord, candidates []InterfaceCandidate) []ScoreRecord {
	ranked := append([]ScoreRecord(nil), records...)
	strain := func(r ScoreRecord) float64 { return candidates[r.CandidateIndex].Provenance.FilmStrain }
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Converged != b.Converged {
			return a.Converged
		}
		if !a.Converged {
			return a.CandidateIndex < b.CandidateIndex
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return strain(a) < strain(b)
	})
	return ranked
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

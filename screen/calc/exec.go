package calc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/hetero-screen/hetero-screen/screen"
)

// Exec wraps an external energy engine as a calculator backend. The child
// process receives the structure as JSON on stdin and must print a JSON
// object {"energy": <eV>, "converged": <bool>} on stdout. Any file staging
// the engine needs is the wrapper script's business; the core never touches
// the filesystem for it.
type Exec struct {
	command []string
}

// NewExec validates the invocation at construction time.
func NewExec(command []string) (*Exec, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("%w: exec backend has no command", screen.ErrCalculatorUnavailable)
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", screen.ErrCalculatorUnavailable, err)
	}
	return &Exec{command: command}, nil
}

func (e *Exec) Name() string { return "exec:" + e.command[0] }

type execRequest struct {
	Elements []string      `json:"elements"`
	Coords   [][3]float64  `json:"coords"`
	Mode     string        `json:"mode"`
	Lattice  [3][3]float64 `json:"lattice"`
	PBC      [3]bool       `json:"pbc"`
}

type execResponse struct {
	Energy    float64 `json:"energy"`
	Converged *bool   `json:"converged"`
}

// Evaluate runs one engine invocation. A deadline or cancellation maps to
// ErrNotConverged so the orchestrator records the candidate instead of
// aborting the screen; an engine that cannot be started at all maps to
// ErrCalculatorUnavailable.
func (e *Exec) Evaluate(ctx context.Context, s *screen.AtomicStructure) (float64, error) {
	req := execRequest{
		Elements: s.Elements,
		Coords:   s.Coords,
		Mode:     string(s.Mode),
		PBC:      s.PBC,
	}
	for i := 0; i < 3; i++ {
		req.Lattice[i] = s.LatticeRow(i)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("exec backend: encoding structure: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: engine %s: %v", screen.ErrNotConverged, e.command[0], ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logrus.Warnf("exec backend %s exited %d: %s", e.command[0], exitErr.ExitCode(), stderr.String())
			return 0, fmt.Errorf("%w: engine exited %d", screen.ErrNotConverged, exitErr.ExitCode())
		}
		return 0, fmt.Errorf("%w: starting engine %s: %v", screen.ErrCalculatorUnavailable, e.command[0], err)
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return 0, fmt.Errorf("%w: engine output unparseable: %v", screen.ErrNotConverged, err)
	}
	if resp.Converged != nil && !*resp.Converged {
		return 0, fmt.Errorf("%w: engine reported non-convergence", screen.ErrNotConverged)
	}
	return resp.Energy, nil
}

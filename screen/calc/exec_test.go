package calc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hetero-screen/hetero-screen/screen"
)

func TestNewExec_EmptyCommand_Unavailable(t *testing.T) {
	_, err := NewExec(nil)
	assert.ErrorIs(t, err, screen.ErrCalculatorUnavailable)
}

func TestNewExec_MissingBinary_Unavailable(t *testing.T) {
	_, err := NewExec([]string{"no-such-engine-binary"})
	assert.ErrorIs(t, err, screen.ErrCalculatorUnavailable)
}

func TestExec_EngineReportsEnergy_Parsed(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", `cat >/dev/null; echo '{"energy": -1.5, "converged": true}'`})
	assert.NoError(t, err)
	assert.Equal(t, "exec:sh", e.Name())

	energy, err := e.Evaluate(context.Background(), isolatedPair(t, "Si", "Si", 3))
	assert.NoError(t, err)
	assert.Equal(t, -1.5, energy)
}

func TestExec_EngineOmitsConvergedFlag_TreatedConverged(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", `cat >/dev/null; echo '{"energy": 2.25}'`})
	assert.NoError(t, err)
	energy, err := e.Evaluate(context.Background(), isolatedPair(t, "Si", "Si", 3))
	assert.NoError(t, err)
	assert.Equal(t, 2.25, energy)
}

func TestExec_EngineReportsNonConvergence_NotConverged(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", `cat >/dev/null; echo '{"energy": 0, "converged": false}'`})
	assert.NoError(t, err)
	_, err = e.Evaluate(context.Background(), isolatedPair(t, "Si", "Si", 3))
	assert.ErrorIs(t, err, screen.ErrNotConverged)
}

func TestExec_EngineExitsNonZero_NotConverged(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", "cat >/dev/null; exit 3"})
	assert.NoError(t, err)
	_, err = e.Evaluate(context.Background(), isolatedPair(t, "Si", "Si", 3))
	assert.ErrorIs(t, err, screen.ErrNotConverged)
}

func TestExec_UnparseableOutput_NotConverged(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", "cat >/dev/null; echo not-json"})
	assert.NoError(t, err)
	_, err = e.Evaluate(context.Background(), isolatedPair(t, "Si", "Si", 3))
	assert.ErrorIs(t, err, screen.ErrNotConverged)
}

func TestExec_DeadlineExceeded_NotConverged(t *testing.T) {
	e, err := NewExec([]string{"sh", "-c", "sleep 5"})
	assert.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = e.Evaluate(ctx, isolatedPair(t, "Si", "Si", 3))
	assert.ErrorIs(t, err, screen.ErrNotConverged)
}

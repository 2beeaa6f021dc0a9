// Package matdb provides bulk-structure lookup for the screening pipeline.
// Structures are keyed by an opaque database identifier; the pipeline treats
// whatever comes back as already valid. The lookup is injected explicitly —
// there is no module-level registry.
package matdb

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/hetero-screen/hetero-screen/screen"
)

// ErrUnknownMaterial reports a lookup miss.
var ErrUnknownMaterial = errors.New("unknown material id")

// Lookup resolves an opaque structure identifier to a bulk structure.
type Lookup interface {
	Get(id string) (*screen.AtomicStructure, error)
}

// Table is an in-memory Lookup.
type Table struct {
	entries map[string]*screen.AtomicStructure
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*screen.AtomicStructure)}
}

// Put stores a structure under id.
func (t *Table) Put(id string, s *screen.AtomicStructure) {
	t.entries[id] = s
}

// Get returns a copy of the stored structure, keeping the table's own entry
// immutable from the caller's perspective.
func (t *Table) Get(id string) (*screen.AtomicStructure, error) {
	s, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMaterial, id)
	}
	return s.Clone(), nil
}

// IDs returns the stored identifiers.
func (t *Table) IDs() []string {
	out := make([]string, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	return out
}

type materialSpec struct {
	ID        string       `yaml:"id"`
	Elements  []string     `yaml:"elements"`
	Lattice   [3][3]float64 `yaml:"lattice"`
	Coords    [][3]float64 `yaml:"coords"`
	Cartesian bool         `yaml:"cartesian"`
}

type registryFile struct {
	Materials []materialSpec `yaml:"materials"`
}

// LoadRegistry reads a YAML materials file into a Table. Every entry is
// validated through the AtomicStructure invariants before it is admitted.
func LoadRegistry(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("matdb: reading registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("matdb: parsing registry %s: %w", path, err)
	}
	table := NewTable()
	for _, m := range file.Materials {
		s, err := specToStructure(m)
		if err != nil {
			return nil, fmt.Errorf("matdb: material %s: %w", m.ID, err)
		}
		table.Put(m.ID, s)
	}
	logrus.Debugf("matdb: loaded %d materials from %s", len(file.Materials), path)
	return table, nil
}

func specToStructure(m materialSpec) (*screen.AtomicStructure, error) {
	if m.ID == "" {
		return nil, errors.New("missing id")
	}
	mode := screen.Fractional
	if m.Cartesian {
		mode = screen.Cartesian
	}
	lattice := mat.NewDense(3, 3, []float64{
		m.Lattice[0][0], m.Lattice[0][1], m.Lattice[0][2],
		m.Lattice[1][0], m.Lattice[1][1], m.Lattice[1][2],
		m.Lattice[2][0], m.Lattice[2][1], m.Lattice[2][2],
	})
	return screen.NewAtomicStructure(m.Elements, m.Coords, mode, lattice, [3]bool{true, true, true}, 2)
}

// DemoTable holds the two demonstration materials of the original workflow:
// diamond-Si and FCC Ag primitive cells.
func DemoTable() *Table {
	table := NewTable()

	si, _ := screen.NewAtomicStructure(
		[]string{"Si", "Si"},
		[][3]float64{{0, 0, 0}, {0.25, 0.25, 0.25}},
		screen.Fractional,
		mat.NewDense(3, 3, []float64{2.715, 2.715, 0, 0, 2.715, 2.715, 2.715, 0, 2.715}),
		[3]bool{true, true, true}, 2,
	)
	table.Put("JVASP-816", si)

	ag, _ := screen.NewAtomicStructure(
		[]string{"Ag"},
		[][3]float64{{0, 0, 0}},
		screen.Fractional,
		mat.NewDense(3, 3, []float64{1.7985, 1.7985, 0, 0, 1.7985, 1.7985, 1.7985, 0, 1.7985}),
		[3]bool{true, true, true}, 2,
	)
	table.Put("JVASP-867", ag)

	return table
}

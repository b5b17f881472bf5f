package eval

import (
	"fmt"
	"slices"

	"github.com/mchmarny/celleval/pkg/table"
)

// Truth holds the ground-truth cell of an observation.
type Truth struct {
	Volume float64
	A      float64
	B      float64
	C      float64
	Alpha  float64
	Beta   float64
	Gamma  float64
}

func (t Truth) values() []float64 {
	return []float64{t.Volume, t.A, t.B, t.C, t.Alpha, t.Beta, t.Gamma}
}

// Attempt holds the values extracted from one generated candidate.
type Attempt struct {
	VolGenerated Measure
	VolImplied   Measure
	A            Measure
	B            Measure
	C            Measure
	Alpha        Measure
	Beta         Measure
	Gamma        Measure
}

// Measures returns the attempt values in table.AttemptFields order.
func (a Attempt) Measures() []Measure {
	return []Measure{a.VolGenerated, a.VolImplied, a.A, a.B, a.C, a.Alpha, a.Beta, a.Gamma}
}

// Row is one evaluated observation.
type Row struct {
	Formula    string
	SpaceGroup string
	Truth      Truth
	Attempts   []Attempt
}

// Builder accumulates rows for a fixed attempt count.
type Builder struct {
	attempts int
	rows     []Row
}

// NewBuilder returns a builder for rows with the given number of attempts.
func NewBuilder(attempts, capacity int) *Builder {
	return &Builder{attempts: attempts, rows: make([]Row, 0, capacity)}
}

// Append adds a copy of r. The attempt count must match the builder's.
func (b *Builder) Append(r Row) error {
	if len(r.Attempts) != b.attempts {
		return fmt.Errorf("row %s has %d attempts, want %d", r.Formula, len(r.Attempts), b.attempts)
	}
	r.Attempts = slices.Clone(r.Attempts)
	b.rows = append(b.rows, r)
	return nil
}

// Table freezes the accumulated rows.
func (b *Builder) Table() *Table {
	return &Table{attempts: b.attempts, rows: slices.Clone(b.rows)}
}

// Table is the immutable result of an evaluation.
type Table struct {
	attempts int
	rows     []Row
}

func (t *Table) Attempts() int { return t.attempts }

func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	r := t.rows[i]
	r.Attempts = slices.Clone(r.Attempts)
	return r
}

// Frame converts the table into its column layout.
func (t *Table) Frame() (*table.Frame, error) {
	n := len(t.rows)
	f := table.NewFrame(n)

	formula := make([]string, n)
	sg := make([]string, n)
	for i, r := range t.rows {
		formula[i] = r.Formula
		sg[i] = r.SpaceGroup
	}
	if err := f.AddText(table.ColFormula, formula); err != nil {
		return nil, err
	}
	if err := f.AddText(table.ColSpaceGroup, sg); err != nil {
		return nil, err
	}

	for j, name := range table.TrueColumns {
		col := make([]float64, n)
		for i, r := range t.rows {
			col[i] = r.Truth.values()[j]
		}
		if err := f.AddNumeric(name, col); err != nil {
			return nil, err
		}
	}

	for k := 0; k < t.attempts; k++ {
		for j, field := range table.AttemptFields {
			col := make([]float64, n)
			for i, r := range t.rows {
				col[i] = r.Attempts[k].Measures()[j].Float()
			}
			if err := f.AddNumeric(table.AttemptColumn(k+1, field), col); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

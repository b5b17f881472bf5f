// Package eval pairs true and generated structure records and extracts the
// cell parameters of both into a result table.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mchmarny/celleval/pkg/cell"
	"github.com/mchmarny/celleval/pkg/cif"
	"github.com/mchmarny/celleval/pkg/dataset"
	"github.com/schollz/progressbar/v3"
)

// Options controls an evaluation run.
type Options struct {
	// Attempts is the number of generation attempts per observation.
	Attempts int
	// Progress receives a progress bar when set.
	Progress io.Writer
}

// Run evaluates every true record against the generated entry at the same index.
// True-side extraction failures abort the run; generated-side failures are
// recorded as undefined measures.
func Run(ctx context.Context, trueSet []string, genSet dataset.Collection, opt Options) (*Table, error) {
	if opt.Attempts < 1 {
		return nil, fmt.Errorf("attempts must be at least 1, got %d", opt.Attempts)
	}
	if len(genSet) < len(trueSet) {
		return nil, fmt.Errorf("generated collection has %d entries, true collection has %d", len(genSet), len(trueSet))
	}
	if len(genSet) > len(trueSet) {
		slog.Warn("generated collection longer than true collection, extra entries ignored",
			"true", len(trueSet), "generated", len(genSet))
	}

	var bar *progressbar.ProgressBar
	if opt.Progress != nil {
		bar = progressbar.NewOptions(len(trueSet),
			progressbar.OptionSetWriter(opt.Progress),
			progressbar.OptionSetDescription("evaluating"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	b := NewBuilder(opt.Attempts, len(trueSet))
	warned := false

	for i, rec := range trueSet {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := ExtractTruth(rec)
		if err != nil {
			return nil, fmt.Errorf("true record %d: %w", i, err)
		}

		gen := genSet[i]
		if !gen.Sequence && opt.Attempts > 1 && !warned {
			slog.Warn("generated entry is a single record, reusing it for every attempt",
				"index", i, "attempts", opt.Attempts)
			warned = true
		}

		row.Attempts = make([]Attempt, opt.Attempts)
		for k := range row.Attempts {
			cand, ok := gen.Candidate(k)
			if !ok {
				row.Attempts[k] = missingAttempt(fmt.Errorf("%w %d", ErrMissingCandidate, k+1))
				continue
			}
			row.Attempts[k] = ExtractAttempt(cand)
		}

		if err := b.Append(row); err != nil {
			return nil, err
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	t := b.Table()
	slog.Debug("evaluation complete", "rows", t.Len(), "attempts", t.Attempts())
	return t, nil
}

// ExtractTruth reads the formula, space group and cell of a true record.
func ExtractTruth(rec string) (Row, error) {
	var (
		r   Row
		err error
	)

	if r.Formula, err = cif.Formula(rec); err != nil {
		return r, err
	}
	if r.SpaceGroup, err = cif.SpaceGroup(rec); err != nil {
		return r, err
	}
	if r.Truth.Volume, err = cif.Volume(rec); err != nil {
		return r, err
	}

	p, err := cif.Cell(rec)
	if err != nil {
		return r, err
	}
	r.Truth.A, r.Truth.B, r.Truth.C = p[0], p[1], p[2]
	r.Truth.Alpha, r.Truth.Beta, r.Truth.Gamma = p[3], p[4], p[5]

	return r, nil
}

// ExtractAttempt reads every value of a generated record independently.
func ExtractAttempt(rec string) Attempt {
	prop := func(key string) Measure {
		return measure(cif.NumericProperty(rec, key))
	}

	a := Attempt{
		VolGenerated: measure(cif.Volume(rec)),
		A:            prop(cif.KeyLengthA),
		B:            prop(cif.KeyLengthB),
		C:            prop(cif.KeyLengthC),
		Alpha:        prop(cif.KeyAngleAlpha),
		Beta:         prop(cif.KeyAngleBeta),
		Gamma:        prop(cif.KeyAngleGamma),
	}
	a.VolImplied = impliedVolume(a)
	return a
}

func impliedVolume(a Attempt) Measure {
	for _, m := range []Measure{a.A, a.B, a.C, a.Alpha, a.Beta, a.Gamma} {
		if !m.Valid() {
			return Undefined(fmt.Errorf("%w: %w", cell.ErrUndefinedInput, m.Reason))
		}
	}
	return measure(cell.Volume(a.A.Value, a.B.Value, a.C.Value, a.Alpha.Value, a.Beta.Value, a.Gamma.Value))
}

func missingAttempt(reason error) Attempt {
	u := Undefined(reason)
	return Attempt{VolGenerated: u, VolImplied: u, A: u, B: u, C: u, Alpha: u, Beta: u, Gamma: u}
}

// Undefined counts the undefined measures of every attempt column, keyed by reason class.
func (t *Table) Undefined() map[string]int {
	out := make(map[string]int)
	for _, r := range t.rows {
		for _, a := range r.Attempts {
			for _, m := range a.Measures() {
				if m.Valid() {
					continue
				}
				out[reasonClass(m.Reason)]++
			}
		}
	}
	return out
}

func reasonClass(err error) string {
	switch {
	case errors.Is(err, ErrMissingCandidate):
		return "missing_candidate"
	case errors.Is(err, cell.ErrUndefinedInput):
		return "undefined_input"
	case errors.Is(err, cell.ErrInvalidGeometry):
		return "invalid_geometry"
	case errors.Is(err, cif.ErrNotNumeric):
		return "not_numeric"
	case errors.Is(err, cif.ErrPropertyNotFound):
		return "not_found"
	default:
		return "other"
	}
}

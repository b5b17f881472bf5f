// Package score compares true and generated columns of a result table.
package score

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mchmarny/celleval/pkg/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrUndefinedMetric is returned when a pair has too few rows to be scored.
	ErrUndefinedMetric = errors.New("undefined metric")
	// ErrNoValidRows is returned when no row has both values defined.
	ErrNoValidRows = errors.New("no valid rows")
)

const separator = "- - - - -"

// Pair names the reference and candidate columns of one comparison.
type Pair struct {
	Attempt   int    `json:"attempt" yaml:"attempt"`
	Reference string `json:"reference" yaml:"reference"`
	Candidate string `json:"candidate" yaml:"candidate"`
}

// Pairs returns the eight comparisons for one-based attempt k.
func Pairs(k int) []Pair {
	gen := func(f string) string { return table.AttemptColumn(k, f) }
	return []Pair{
		{k, table.ColTrueVolume, gen(table.FieldVolGenerated)},
		{k, table.ColTrueA, gen(table.FieldA)},
		{k, table.ColTrueB, gen(table.FieldB)},
		{k, table.ColTrueC, gen(table.FieldC)},
		{k, table.ColTrueAlpha, gen(table.FieldAlpha)},
		{k, table.ColTrueBeta, gen(table.FieldBeta)},
		{k, table.ColTrueGamma, gen(table.FieldGamma)},
		{k, gen(table.FieldVolImplied), gen(table.FieldVolGenerated)},
	}
}

// Result is the score of one pair. Err is set when the metric is undefined.
type Result struct {
	Pair
	R2  float64 `json:"r2" yaml:"r2"`
	MAE float64 `json:"mae" yaml:"mae"`
	N   int     `json:"n" yaml:"n"`
	Err error   `json:"-" yaml:"-"`
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s - %s: undefined (%v)", r.Reference, r.Candidate, r.Err)
	}
	return fmt.Sprintf("%s - %s: r2: %.3f, mae: %.3f", r.Reference, r.Candidate, r.R2, r.MAE)
}

// Metrics returns R² and mean absolute error of pred against ref over the
// rows where both are defined, and the number of such rows.
func Metrics(ref, pred []float64) (r2, mae float64, n int, err error) {
	if len(ref) != len(pred) {
		return 0, 0, 0, fmt.Errorf("column lengths differ: %d != %d", len(ref), len(pred))
	}

	y := make([]float64, 0, len(ref))
	yhat := make([]float64, 0, len(pred))
	for i := range ref {
		if math.IsNaN(ref[i]) || math.IsNaN(pred[i]) {
			continue
		}
		y = append(y, ref[i])
		yhat = append(yhat, pred[i])
	}

	n = len(y)
	switch {
	case n == 0:
		return 0, 0, 0, fmt.Errorf("%w: %w", ErrUndefinedMetric, ErrNoValidRows)
	case n < 2:
		return 0, 0, n, fmt.Errorf("%w: r2 needs at least 2 rows, have %d", ErrUndefinedMetric, n)
	}

	mae = floats.Distance(y, yhat, 1) / float64(n)

	// a constant reference has no variance to explain
	if floats.Max(y) == floats.Min(y) {
		if floats.Equal(y, yhat) {
			return 1, mae, n, nil
		}
		return 0, mae, n, nil
	}

	return stat.RSquaredFrom(yhat, y, nil), mae, n, nil
}

// Compute scores one pair of frame columns.
func Compute(f *table.Frame, p Pair) Result {
	res := Result{Pair: p}

	ref, err := f.Numeric(p.Reference)
	if err != nil {
		res.Err = err
		return res
	}
	pred, err := f.Numeric(p.Candidate)
	if err != nil {
		res.Err = err
		return res
	}

	res.R2, res.MAE, res.N, res.Err = Metrics(ref, pred)
	return res
}

// Report holds the results of every pair of every attempt.
type Report struct {
	Attempts int      `json:"attempts" yaml:"attempts"`
	Rows     int      `json:"rows" yaml:"rows"`
	Results  []Result `json:"results" yaml:"results"`
}

// Evaluate scores every pair of attempts 1..attempts.
func Evaluate(f *table.Frame, attempts int) *Report {
	r := &Report{
		Attempts: attempts,
		Rows:     f.Len(),
		Results:  make([]Result, 0, attempts*len(Pairs(1))),
	}
	for k := 1; k <= attempts; k++ {
		for _, p := range Pairs(k) {
			r.Results = append(r.Results, Compute(f, p))
		}
	}
	return r
}

// Err joins the errors of every undefined result.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s - %s: %w", res.Reference, res.Candidate, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Write prints the results of each attempt followed by a separator line.
func (r *Report) Write(w io.Writer) error {
	for k := 1; k <= r.Attempts; k++ {
		for _, res := range r.Results {
			if res.Attempt != k {
				continue
			}
			if _, err := fmt.Fprintln(w, res.String()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, separator); err != nil {
			return err
		}
	}
	return nil
}

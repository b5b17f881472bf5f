package table

import (
	"errors"
	"fmt"
	"slices"
)

var ErrColumnNotFound = errors.New("column not found")

// Frame is an ordered set of equally long text and numeric columns.
// Undefined numeric values are NaN.
type Frame struct {
	header []string
	text   map[string][]string
	nums   map[string][]float64
	rows   int
}

// NewFrame returns an empty frame with rows rows.
func NewFrame(rows int) *Frame {
	return &Frame{
		text: make(map[string][]string),
		nums: make(map[string][]float64),
		rows: rows,
	}
}

func (f *Frame) add(name string, n int) error {
	if n != f.rows {
		return fmt.Errorf("column %s has %d values, frame has %d rows", name, n, f.rows)
	}
	if slices.Contains(f.header, name) {
		return fmt.Errorf("duplicate column %s", name)
	}
	f.header = append(f.header, name)
	return nil
}

// AddText appends a label column.
func (f *Frame) AddText(name string, vals []string) error {
	if err := f.add(name, len(vals)); err != nil {
		return err
	}
	f.text[name] = slices.Clone(vals)
	return nil
}

// AddNumeric appends a numeric column.
func (f *Frame) AddNumeric(name string, vals []float64) error {
	if err := f.add(name, len(vals)); err != nil {
		return err
	}
	f.nums[name] = slices.Clone(vals)
	return nil
}

// Header returns the column names in order.
func (f *Frame) Header() []string {
	return slices.Clone(f.header)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	v, ok := f.nums[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return v, nil
}

// Text returns the values of a label column.
func (f *Frame) Text(name string) ([]string, error) {
	v, ok := f.text[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return v, nil
}

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// WriteCSV writes the frame with a header row. NaN is written as an empty cell.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	rec := make([]string, len(f.header))
	for i := 0; i < f.rows; i++ {
		for j, name := range f.header {
			if v, ok := f.text[name]; ok {
				rec[j] = v[i]
				continue
			}
			rec[j] = formatFloat(f.nums[name][i])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("error writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the frame to path.
func SaveCSV(path string, f *Frame) (retErr error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()
	return WriteCSV(out, f)
}

// ReadCSV reads a frame written by WriteCSV. Label columns stay text,
// every other column is parsed as float with empty cells read as NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table")
		}
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	cr.FieldsPerRecord = len(header)

	text := make(map[string][]string)
	nums := make(map[string][]float64)
	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", rows+1, err)
		}
		for j, name := range header {
			if IsText(name) {
				text[name] = append(text[name], rec[j])
				continue
			}
			v, err := parseFloat(rec[j])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", rows+1, name, err)
			}
			nums[name] = append(nums[name], v)
		}
		rows++
	}

	f := NewFrame(rows)
	for _, name := range header {
		if IsText(name) {
			err = f.AddText(name, padText(text[name], rows))
		} else {
			err = f.AddNumeric(name, padNums(nums[name], rows))
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LoadCSV reads the frame stored at path.
func LoadCSV(path string) (*Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer in.Close()
	return ReadCSV(in)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// zero-row tables leave the column maps without entries
func padText(v []string, n int) []string {
	if v == nil {
		return make([]string, n)
	}
	return v
}

func padNums(v []float64, n int) []float64 {
	if v == nil {
		return make([]float64, n)
	}
	return v
}

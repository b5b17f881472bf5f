// Package cif extracts named scalar properties from CIF structure records.
// Lookups are plain key/regex matches against the record text; no attempt
// is made to parse loops or the full CIF grammar.
package cif

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const (
	KeyVolume     = "_cell_volume"
	KeyLengthA    = "_cell_length_a"
	KeyLengthB    = "_cell_length_b"
	KeyLengthC    = "_cell_length_c"
	KeyAngleAlpha = "_cell_angle_alpha"
	KeyAngleBeta  = "_cell_angle_beta"
	KeyAngleGamma = "_cell_angle_gamma"

	keySpaceGroup = "_symmetry_space_group_name_H-M"
	keyDataBlock  = "data_"
)

var (
	// ErrPropertyNotFound is returned when the record does not carry the key.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrNotNumeric is returned when the key is present but its value does not parse.
	ErrNotNumeric = errors.New("property not numeric")

	// CellKeys lists the six cell parameter keys in a, b, c, alpha, beta, gamma order.
	CellKeys = []string{KeyLengthA, KeyLengthB, KeyLengthC, KeyAngleAlpha, KeyAngleBeta, KeyAngleGamma}

	formulaRegEx    = regexp.MustCompile(`data_([A-Za-z0-9]+)(?:\r?\n|$)`)
	spaceGroupRegEx = regexp.MustCompile(regexp.QuoteMeta(keySpaceGroup) + `\s+(?:'([^']+)'|(\S+))`)

	knownRegEx = map[string]*regexp.Regexp{}
)

func init() {
	for _, k := range append([]string{KeyVolume}, CellKeys...) {
		knownRegEx[k] = compileNumeric(k)
	}
}

// PropertyError describes a failed lookup of a single key.
type PropertyError struct {
	Key string
	Err error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// Formula returns the data block label of the record (e.g. Na2Cl2 for data_Na2Cl2).
func Formula(record string) (string, error) {
	m := formulaRegEx.FindStringSubmatch(record)
	if m == nil {
		return "", &PropertyError{Key: keyDataBlock, Err: ErrPropertyNotFound}
	}
	return m[1], nil
}

// SpaceGroup returns the Hermann-Mauguin space group symbol, with quotes removed.
func SpaceGroup(record string) (string, error) {
	m := spaceGroupRegEx.FindStringSubmatch(record)
	if m == nil {
		return "", &PropertyError{Key: keySpaceGroup, Err: ErrPropertyNotFound}
	}
	if m[1] != "" {
		return m[1], nil
	}
	return m[2], nil
}

// Volume returns the reported unit cell volume.
func Volume(record string) (float64, error) {
	return NumericProperty(record, KeyVolume)
}

// NumericProperty returns the first numeric value following key in the record.
// Trailing uncertainties such as 5.431(2) are dropped.
func NumericProperty(record, key string) (float64, error) {
	if key == "" {
		return 0, errors.New("property key required")
	}

	m := numericRegEx(key).FindStringSubmatch(record)
	if m == nil {
		return 0, &PropertyError{Key: key, Err: ErrPropertyNotFound}
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &PropertyError{Key: key, Err: fmt.Errorf("%w: %q", ErrNotNumeric, m[1])}
	}
	return v, nil
}

// Cell returns the six cell parameters in CellKeys order.
// The first failing key is returned as the error.
func Cell(record string) ([6]float64, error) {
	var out [6]float64
	for i, k := range CellKeys {
		v, err := NumericProperty(record, k)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func numericRegEx(key string) *regexp.Regexp {
	if re, ok := knownRegEx[key]; ok {
		return re
	}
	return compileNumeric(key)
}

func compileNumeric(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(key) + `\s+([.0-9]+)`)
}

// Package table holds the column layout of the evaluation results and the
// column-oriented frame used to persist and score them.
package table

import "fmt"

const (
	ColFormula    = "formula"
	ColSpaceGroup = "sg"

	ColTrueVolume = "true_vol"
	ColTrueA      = "true_a"
	ColTrueB      = "true_b"
	ColTrueC      = "true_c"
	ColTrueAlpha  = "true_alpha"
	ColTrueBeta   = "true_beta"
	ColTrueGamma  = "true_gamma"

	FieldVolGenerated = "vol_generated"
	FieldVolImplied   = "vol_implied"
	FieldA            = "a"
	FieldB            = "b"
	FieldC            = "c"
	FieldAlpha        = "alpha"
	FieldBeta         = "beta"
	FieldGamma        = "gamma"
)

var (
	// TextColumns are the label columns; every other column is numeric.
	TextColumns = []string{ColFormula, ColSpaceGroup}

	TrueColumns = []string{ColTrueVolume, ColTrueA, ColTrueB, ColTrueC, ColTrueAlpha, ColTrueBeta, ColTrueGamma}

	AttemptFields = []string{FieldVolGenerated, FieldVolImplied, FieldA, FieldB, FieldC, FieldAlpha, FieldBeta, FieldGamma}
)

// AttemptColumn returns the column name of field for one-based attempt k.
func AttemptColumn(k int, field string) string {
	return fmt.Sprintf("gen%d_%s", k, field)
}

// Header returns the full column list for the given attempt count.
func Header(attempts int) []string {
	h := make([]string, 0, ColumnCount(attempts))
	h = append(h, TextColumns...)
	h = append(h, TrueColumns...)
	for k := 1; k <= attempts; k++ {
		for _, f := range AttemptFields {
			h = append(h, AttemptColumn(k, f))
		}
	}
	return h
}

// ColumnCount returns len(Header(attempts)).
func ColumnCount(attempts int) int {
	return len(TextColumns) + len(TrueColumns) + len(AttemptFields)*attempts
}

// AttemptsFromHeader infers the attempt count from a header produced by Header.
func AttemptsFromHeader(header []string) (int, error) {
	fixed := len(TextColumns) + len(TrueColumns)
	rest := len(header) - fixed
	if rest < 0 || rest%len(AttemptFields) != 0 {
		return 0, fmt.Errorf("unexpected column count %d", len(header))
	}
	k := rest / len(AttemptFields)
	want := Header(k)
	for i := range want {
		if header[i] != want[i] {
			return 0, fmt.Errorf("unexpected column %d: %q (want %q)", i, header[i], want[i])
		}
	}
	return k, nil
}

// IsText reports whether name is a label column.
func IsText(name string) bool {
	for _, c := range TextColumns {
		if c == name {
			return true
		}
	}
	return false
}

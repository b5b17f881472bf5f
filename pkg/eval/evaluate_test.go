package eval

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/mchmarny/celleval/pkg/cell"
	"github.com/mchmarny/celleval/pkg/cif"
	"github.com/mchmarny/celleval/pkg/dataset"
	"github.com/mchmarny/celleval/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCell struct {
	formula string
	sg      string
	vol     string
	params  [6]string
	omit    string
}

func (c testCell) record() string {
	var b strings.Builder
	fmt.Fprintf(&b, "data_%s\n", c.formula)
	fmt.Fprintf(&b, "_symmetry_space_group_name_H-M '%s'\n", c.sg)
	for i, k := range cif.CellKeys {
		if k == c.omit {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", k, c.params[i])
	}
	if c.omit != cif.KeyVolume {
		fmt.Fprintf(&b, "_cell_volume %s\n", c.vol)
	}
	return b.String()
}

func cubic(formula, a, vol string) testCell {
	return testCell{
		formula: formula,
		sg:      "P 1",
		vol:     vol,
		params:  [6]string{a, a, a, "90", "90", "90"},
	}
}

func TestRun_SingleCubic(t *testing.T) {
	rec := cubic("X1", "5", "125.0").record()

	tbl, err := Run(context.Background(), []string{rec}, dataset.Collection{dataset.Single(rec)}, Options{Attempts: 1})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	r := tbl.Row(0)
	assert.Equal(t, "X1", r.Formula)
	assert.Equal(t, "P 1", r.SpaceGroup)
	assert.Equal(t, 125.0, r.Truth.Volume)
	require.Len(t, r.Attempts, 1)
	assert.True(t, r.Attempts[0].VolImplied.Valid())
	assert.InDelta(t, 125.0, r.Attempts[0].VolImplied.Value, 1e-9)
	assert.Equal(t, 125.0, r.Attempts[0].VolGenerated.Value)
}

func TestRun_SingleRecordDuplicated(t *testing.T) {
	truth := cubic("X1", "5", "125.0").record()
	gen := cubic("X1", "5.1", "132.651").record()

	tbl, err := Run(context.Background(), []string{truth}, dataset.Collection{dataset.Single(gen)}, Options{Attempts: 3})
	require.NoError(t, err)

	r := tbl.Row(0)
	require.Len(t, r.Attempts, 3)
	for k := 1; k < 3; k++ {
		assert.Equal(t, r.Attempts[0].A, r.Attempts[k].A)
		assert.Equal(t, r.Attempts[0].VolGenerated, r.Attempts[k].VolGenerated)
		assert.Equal(t, r.Attempts[0].VolImplied.Value, r.Attempts[k].VolImplied.Value)
	}
}

func TestRun_MissingAlpha(t *testing.T) {
	truth := cubic("X1", "5", "125.0").record()
	c := cubic("X1", "5", "125.0")
	c.omit = cif.KeyAngleAlpha

	tbl, err := Run(context.Background(), []string{truth}, dataset.Collection{dataset.Seq(c.record())}, Options{Attempts: 1})
	require.NoError(t, err)

	a := tbl.Row(0).Attempts[0]
	assert.False(t, a.Alpha.Valid())
	assert.ErrorIs(t, a.Alpha.Reason, cif.ErrPropertyNotFound)
	assert.False(t, a.VolImplied.Valid())
	assert.ErrorIs(t, a.VolImplied.Reason, cell.ErrUndefinedInput)
	assert.True(t, a.VolGenerated.Valid())
	assert.Equal(t, 125.0, a.VolGenerated.Value)
	assert.True(t, a.Beta.Valid())
}

func TestRun_InvalidGeometry(t *testing.T) {
	truth := cubic("X1", "5", "125.0").record()
	c := cubic("X1", "5", "1.0")
	c.params = [6]string{"5", "5", "5", "170", "170", "170"}

	tbl, err := Run(context.Background(), []string{truth}, dataset.Collection{dataset.Seq(c.record())}, Options{Attempts: 1})
	require.NoError(t, err)

	a := tbl.Row(0).Attempts[0]
	assert.ErrorIs(t, a.VolImplied.Reason, cell.ErrInvalidGeometry)
	assert.True(t, math.IsNaN(a.VolImplied.Float()))
	assert.Equal(t, 1, tbl.Undefined()["invalid_geometry"])
}

func TestRun_ShortSequence(t *testing.T) {
	truth := cubic("X1", "5", "125.0").record()
	gen := dataset.Seq(cubic("X1", "5", "125.0").record())

	tbl, err := Run(context.Background(), []string{truth}, dataset.Collection{gen}, Options{Attempts: 2})
	require.NoError(t, err)

	a := tbl.Row(0).Attempts
	assert.True(t, a[0].A.Valid())
	assert.ErrorIs(t, a[1].A.Reason, ErrMissingCandidate)
	assert.Equal(t, 8, tbl.Undefined()["missing_candidate"])
}

func TestRun_TrueFailureIsFatal(t *testing.T) {
	c := cubic("X1", "5", "125.0")
	c.omit = cif.KeyLengthB

	_, err := Run(context.Background(), []string{c.record()}, dataset.Collection{dataset.Single(c.record())}, Options{Attempts: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, cif.ErrPropertyNotFound)
	assert.Contains(t, err.Error(), "true record 0")
}

func TestRun_Validation(t *testing.T) {
	rec := cubic("X1", "5", "125.0").record()
	ctx := context.Background()

	_, err := Run(ctx, []string{rec}, dataset.Collection{dataset.Single(rec)}, Options{Attempts: 0})
	assert.Error(t, err)

	_, err = Run(ctx, []string{rec, rec}, dataset.Collection{dataset.Single(rec)}, Options{Attempts: 1})
	assert.Error(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Run(cctx, []string{rec}, dataset.Collection{dataset.Single(rec)}, Options{Attempts: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Progress(t *testing.T) {
	rec := cubic("X1", "5", "125.0").record()
	var buf bytes.Buffer

	tbl, err := Run(context.Background(), []string{rec, rec}, dataset.Collection{dataset.Single(rec), dataset.Single(rec)},
		Options{Attempts: 1, Progress: &buf})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.NotEmpty(t, buf.String())
}

func TestTable_Frame(t *testing.T) {
	recs := []string{
		cubic("A1", "5", "125.0").record(),
		cubic("B2", "4", "64.0").record(),
		cubic("C3", "3", "27.0").record(),
	}
	missing := cubic("B2", "4", "64.0")
	missing.omit = cif.KeyAngleGamma

	gen := dataset.Collection{
		dataset.Seq(recs[0], recs[0]),
		dataset.Seq(missing.record(), recs[1]),
		dataset.Single(recs[2]),
	}

	tbl, err := Run(context.Background(), recs, gen, Options{Attempts: 2})
	require.NoError(t, err)

	f, err := tbl.Frame()
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.Len(t, f.Header(), 2+7+8*2)
	assert.Equal(t, table.Header(2), f.Header())

	g, err := f.Numeric(table.AttemptColumn(1, table.FieldGamma))
	require.NoError(t, err)
	assert.Equal(t, 90.0, g[0])
	assert.True(t, math.IsNaN(g[1]))

	implied, err := f.Numeric(table.AttemptColumn(2, table.FieldVolImplied))
	require.NoError(t, err)
	assert.InDelta(t, 64.0, implied[1], 1e-9)
}

func TestBuilder_AttemptMismatch(t *testing.T) {
	b := NewBuilder(2, 0)
	assert.Error(t, b.Append(Row{Attempts: make([]Attempt, 1)}))
	assert.NoError(t, b.Append(Row{Attempts: make([]Attempt, 2)}))
	assert.Equal(t, 1, b.Table().Len())
}

func TestMeasure(t *testing.T) {
	assert.True(t, Defined(1).Valid())
	assert.False(t, Undefined(nil).Valid())
	assert.True(t, math.IsNaN(Undefined(nil).Float()))
	assert.False(t, Defined(math.NaN()).Valid())
}

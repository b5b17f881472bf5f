package table

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	h := Header(1)
	assert.Equal(t, []string{
		"formula", "sg",
		"true_vol", "true_a", "true_b", "true_c", "true_alpha", "true_beta", "true_gamma",
		"gen1_vol_generated", "gen1_vol_implied", "gen1_a", "gen1_b", "gen1_c", "gen1_alpha", "gen1_beta", "gen1_gamma",
	}, h)

	for k := 0; k < 5; k++ {
		assert.Len(t, Header(k), 2+7+8*k)
		assert.Equal(t, 2+7+8*k, ColumnCount(k))
	}

	assert.Equal(t, "gen3_alpha", Header(3)[len(Header(3))-3])
}

func TestAttemptsFromHeader(t *testing.T) {
	for k := 0; k < 4; k++ {
		got, err := AttemptsFromHeader(Header(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := AttemptsFromHeader([]string{"formula"})
	assert.Error(t, err)

	h := Header(1)
	h[10] = "bogus"
	_, err = AttemptsFromHeader(h)
	assert.Error(t, err)
}

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame(2)
	require.NoError(t, f.AddText(ColFormula, []string{"Na2Cl2", "Si2"}))
	require.NoError(t, f.AddText(ColSpaceGroup, []string{"Fm-3m", "P1"}))
	require.NoError(t, f.AddNumeric(ColTrueVolume, []float64{179.5, 40.25}))
	require.NoError(t, f.AddNumeric(AttemptColumn(1, FieldVolGenerated), []float64{math.NaN(), 41}))
	return f
}

func TestFrame(t *testing.T) {
	f := testFrame(t)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"formula", "sg", "true_vol", "gen1_vol_generated"}, f.Header())

	v, err := f.Numeric(ColTrueVolume)
	require.NoError(t, err)
	assert.Equal(t, []float64{179.5, 40.25}, v)

	_, err = f.Numeric(ColFormula)
	assert.ErrorIs(t, err, ErrColumnNotFound)

	s, err := f.Text(ColSpaceGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fm-3m", "P1"}, s)

	assert.Error(t, f.AddNumeric("short", []float64{1}))
	assert.Error(t, f.AddNumeric(ColTrueVolume, []float64{1, 2}))
}

func TestCSV_RoundTrip(t *testing.T) {
	f := testFrame(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "formula,sg,true_vol,gen1_vol_generated", lines[0])
	assert.Equal(t, "Na2Cl2,Fm-3m,179.5,", lines[1])

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Header(), got.Header())

	v, err := got.Numeric(AttemptColumn(1, FieldVolGenerated))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v[0]))
	assert.Equal(t, 41.0, v[1])
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("formula,true_vol\nX,abc\n"))
	assert.Error(t, err)

	f, err := ReadCSV(strings.NewReader("formula,true_vol\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestSaveLoadCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, SaveCSV(p, testFrame(t)))

	f, err := LoadCSV(p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestArrow(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results.arrow")
	require.NoError(t, SaveArrow(p, testFrame(t)))

	in, err := os.Open(p)
	require.NoError(t, err)
	defer in.Close()

	r, err := ipc.NewFileReader(in, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.NumRecords())
	assert.Equal(t, "gen1_vol_generated", r.Schema().Field(3).Name)

	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.NumRows())

	vols, ok := rec.Column(3).(*array.Float64)
	require.True(t, ok)
	assert.True(t, vols.IsNull(0))
	assert.Equal(t, 41.0, vols.Value(1))
}

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		FloatColumn("age", []float64{21, 35, 44}),
		StringColumn("city", []string{"oslo", "lima", "oslo"}),
		FloatColumn("income", []float64{100, 250, 180}),
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTableRejectsLengthMismatch(t *testing.T) {
	_, err := NewTable(
		FloatColumn("a", []float64{1, 2}),
		FloatColumn("b", []float64{1, 2, 3}),
	)
	require.Error(t, err)

	var dim *advErrors.DimensionError
	assert.True(t, advErrors.As(err, &dim))
}

func TestAppendRejectsDuplicateName(t *testing.T) {
	tbl := sampleTable(t)
	err := tbl.Append(FloatColumn("age", []float64{1, 2, 3}))
	require.Error(t, err)
}

func TestSelectAndDrop(t *testing.T) {
	tbl := sampleTable(t)

	sub, err := tbl.Select("income", "age")
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "age"}, sub.Columns())

	// Select returns copies, not views.
	col, err := sub.Column("age")
	require.NoError(t, err)
	col.Floats[0] = -1
	orig, err := tbl.Column("age")
	require.NoError(t, err)
	assert.Equal(t, 21.0, orig.Floats[0])

	dropped := tbl.Drop("city")
	assert.Equal(t, []string{"age", "income"}, dropped.Columns())
	assert.Equal(t, 3, dropped.Len())

	_, err = tbl.Select("missing")
	var missing *advErrors.MissingColumnsError
	assert.True(t, advErrors.As(err, &missing))
}

func TestMatrixRoundTrip(t *testing.T) {
	tbl := sampleTable(t)

	_, err := tbl.Matrix()
	require.Error(t, err, "string column must not convert silently")

	numeric, err := tbl.Select("age", "income")
	require.NoError(t, err)
	m, err := numeric.Matrix()
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 250.0, m.At(1, 1))

	back, err := FromMatrix([]string{"age", "income"}, m)
	require.NoError(t, err)
	assert.Equal(t, numeric.Columns(), back.Columns())
	col, err := back.Column("income")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 250, 180}, col.Floats)
}

func TestEmptyTableCarriesRowCount(t *testing.T) {
	tbl := NewEmptyTable(5)
	assert.Equal(t, 5, tbl.Len())
	require.NoError(t, tbl.Append(FloatColumn("x", []float64{1, 2, 3, 4, 5})))
	assert.Equal(t, 5, tbl.Len())
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	csv := "age,city,income\n21.0,oslo,100.0\n35.0,lima,250.0\n44.0,oslo,180.0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	tbl, err := ReadCSV(path, true)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, tbl.NumColumns())

	age, err := tbl.Column("age")
	require.NoError(t, err)
	assert.Equal(t, Float, age.Kind)
	assert.InDelta(t, 35.0, age.Floats[1], 1e-9)

	city, err := tbl.Column("city")
	require.NoError(t, err)
	assert.Equal(t, String, city.Kind)
	assert.Equal(t, "lima", city.Strings[1])
}

package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/dataset"
	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	s := NewStandardScaler()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{2.5, 25}, s.Mean)

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		var sum, ss float64
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		mean := sum / float64(r)
		assert.InDelta(t, 0, mean, 1e-12)
		for i := 0; i < r; i++ {
			d := scaled.At(i, j) - mean
			ss += d * d
		}
		assert.InDelta(t, 1, math.Sqrt(ss/float64(r)), 1e-12)
	}

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	s := NewStandardScaler()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, scaled.At(i, 0))
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	var notFitted *advErrors.NotFittedError
	assert.True(t, advErrors.As(err, &notFitted))
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err := s.Transform(mat.NewDense(2, 3, nil))
	var dim *advErrors.DimensionError
	require.True(t, advErrors.As(err, &dim))
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 3, dim.Got)
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, -5,
		5, 0,
		10, 5,
	})

	m := NewMinMaxScaler()
	scaled, err := m.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, 0.0, scaled.At(0, 0))
	assert.Equal(t, 0.5, scaled.At(1, 0))
	assert.Equal(t, 1.0, scaled.At(2, 0))
	assert.Equal(t, 0.0, scaled.At(0, 1))
	assert.Equal(t, 1.0, scaled.At(2, 1))

	back, err := m.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 4})

	m := NewMinMaxScaler()
	m.FeatureRange = [2]float64{-1, 1}
	scaled, err := m.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, -1.0, scaled.At(0, 0))
	assert.Equal(t, 1.0, scaled.At(1, 0))

	m = NewMinMaxScaler()
	m.FeatureRange = [2]float64{1, 1}
	err = m.Fit(X)
	var invalid *advErrors.ValidationError
	assert.True(t, advErrors.As(err, &invalid))
}

func tabTable(t *testing.T) *dataset.Table {
	t.Helper()
	n := 60
	age := make([]float64, n)
	income := make([]float64, n)
	city := make([]string, n)
	for i := 0; i < n; i++ {
		age[i] = 20 + float64(i)*0.5
		income[i] = 1000 + float64(i*i)
		city[i] = []string{"oslo", "lima"}[i%2]
	}
	tbl, err := dataset.NewTable(
		dataset.FloatColumn("age", age),
		dataset.FloatColumn("income", income),
		dataset.StringColumn("city", city),
	)
	require.NoError(t, err)
	return tbl
}

func TestTabScalerStandard(t *testing.T) {
	tbl := tabTable(t).Drop("city")

	ts, err := NewTabScaler(ScaleStandard, 0)
	require.NoError(t, err)

	X, err := ts.FitTransform(tbl)
	require.NoError(t, err)
	_, c := X.Dims()
	assert.Equal(t, 2, c)

	back, err := ts.InverseTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "income"}, back.Columns())

	age, err := back.Column("age")
	require.NoError(t, err)
	orig, err := tbl.Column("age")
	require.NoError(t, err)
	for i := range orig.Floats {
		assert.InDelta(t, orig.Floats[i], age.Floats[i], 1e-9)
	}
}

func TestTabScalerRejectsStrings(t *testing.T) {
	ts, err := NewTabScaler(ScaleMinMax, 0)
	require.NoError(t, err)
	assert.Error(t, ts.Fit(tabTable(t)))
}

func TestTabScalerCTGANHandlesStrings(t *testing.T) {
	tbl := tabTable(t)

	ts, err := NewTabScaler(ScaleCTGAN, 99)
	require.NoError(t, err)

	X, err := ts.FitTransform(tbl)
	require.NoError(t, err)
	_, c := X.Dims()
	// Both numeric columns expand to (normalized, component); the
	// categorical column becomes its one-hot indicators.
	assert.GreaterOrEqual(t, c, 5)

	back, err := ts.InverseTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "income", "city"}, back.Columns())

	city, err := back.Column("city")
	require.NoError(t, err)
	orig, err := tbl.Column("city")
	require.NoError(t, err)
	assert.Equal(t, orig.Strings, city.Strings)
}

func TestTabScalerNone(t *testing.T) {
	tbl := tabTable(t).Drop("city")

	ts, err := NewTabScaler(ScaleNone, 0)
	require.NoError(t, err)
	X, err := ts.FitTransform(tbl)
	require.NoError(t, err)

	orig, err := tbl.Matrix()
	require.NoError(t, err)
	assert.True(t, mat.Equal(orig, X))
}

func TestTabScalerUnknownMethod(t *testing.T) {
	_, err := NewTabScaler("robust", 0)
	var invalid *advErrors.ValidationError
	assert.True(t, advErrors.As(err, &invalid))
}

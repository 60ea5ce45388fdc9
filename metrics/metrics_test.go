package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

func TestMSE(t *testing.T) {
	got, err := MSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = MSE([]float64{0, 0}, []float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	_, err = MSE(nil, nil)
	assert.Error(t, err)

	_, err = MSE([]float64{1, 2}, []float64{1})
	var dim *advErrors.DimensionError
	assert.True(t, advErrors.As(err, &dim))
}

func TestR2Score(t *testing.T) {
	got, err := R2Score([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// Predicting the mean scores zero.
	got, err = R2Score([]float64{1, 2, 3}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)

	got, err = R2Score([]float64{5, 5, 5}, []float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = R2Score([]float64{5, 5, 5}, []float64{5, 5, 6})
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, -1))
}

func TestAccuracy(t *testing.T) {
	got, err := Accuracy([]int{0, 1, 1, 2}, []int{0, 1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.75, got)

	_, err = Accuracy([]int{}, []int{})
	assert.Error(t, err)
}

func TestLogLoss(t *testing.T) {
	got, err := LogLoss([]int{0, 1}, [][]float64{{0.9, 0.1}, {0.2, 0.8}})
	require.NoError(t, err)
	want := -(math.Log(0.9) + math.Log(0.8)) / 2
	assert.InDelta(t, want, got, 1e-12)

	// A confident zero is clamped, not infinite.
	got, err = LogLoss([]int{0}, [][]float64{{0, 1}})
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 1))
	assert.Greater(t, got, 30.0)

	_, err = LogLoss([]int{5}, [][]float64{{0.5, 0.5}})
	assert.Error(t, err)
}
